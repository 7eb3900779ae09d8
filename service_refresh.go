package accounts

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/playtube/accounts/session"
)

// Refresh exchanges a refresh token for a new access/refresh pair.
//
// The presented token must (1) carry a valid refresh-class signature and
// be unexpired, (2) name a subject that still exists, and (3) exactly
// match the token currently on record for that subject. The third check is
// the replay gate: after a rotation the superseded token fails here. Two
// concurrent refreshes for the same subject both pass verification, but
// the store is last-write-wins, so at most one of the issued tokens
// matches the stored value on its next use.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if s == nil || s.tokens == nil {
		return nil, ErrServiceNotReady
	}
	if refreshToken == "" {
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrUnauthorized, func() map[string]string {
			return map[string]string{"reason": "missing_token"}
		})
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		// Expired, forged, and unparseable tokens are indistinguishable
		// to the caller.
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrRefreshInvalid, func() map[string]string {
			return map[string]string{"reason": "verify_failed"}
		})
		return nil, ErrRefreshInvalid
	}

	user, err := s.users.GetUserByID(ctx, claims.UID)
	if err != nil {
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, auditEventRefreshInvalid, false, claims.UID, ErrRefreshInvalid, func() map[string]string {
			return map[string]string{"reason": "subject_not_found"}
		})
		return nil, ErrRefreshInvalid
	}

	stored, err := s.sessions.Get(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			s.metricInc(MetricRefreshFailure)
			s.emitAudit(ctx, auditEventRefreshInvalid, false, user.UserID, ErrRefreshInvalid, func() map[string]string {
				return map[string]string{"reason": "no_stored_token"}
			})
			return nil, ErrRefreshInvalid
		}
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, auditEventRefreshInvalid, false, user.UserID, err, func() map[string]string {
			return map[string]string{"reason": "store_read_failed"}
		})
		return nil, errors.Join(ErrInternal, err)
	}

	if subtle.ConstantTimeCompare([]byte(refreshToken), []byte(stored)) != 1 {
		s.metricInc(MetricRefreshFailure)
		s.metricInc(MetricReplayDetected)
		s.emitAudit(ctx, auditEventRefreshReuseDetected, false, user.UserID, ErrRefreshReuse, nil)
		return nil, ErrRefreshReuse
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, auditEventRefreshInvalid, false, user.UserID, err, func() map[string]string {
			return map[string]string{"reason": "issue_failed"}
		})
		return nil, err
	}

	s.metricInc(MetricRefreshSuccess)
	s.emitAudit(ctx, auditEventRefreshSuccess, true, user.UserID, nil, nil)

	return &pair, nil
}
