package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/playtube/accounts/password"
	"github.com/playtube/accounts/session"
	"github.com/playtube/accounts/token"
)

// Service orchestrates registration, login, token refresh, logout, and
// profile maintenance. Construct it through [Builder.Build]; all methods
// are safe for concurrent use afterwards.
//
// The service owns no user records and takes no locks: each flow reads a
// snapshot from the [UserProvider] and issues whole-value updates, relying
// on the backing stores' per-record atomicity. The one shared mutable
// value is the stored refresh token, and the only consistency rule applied
// to it is last write wins.
type Service struct {
	config   Config
	users    UserProvider
	files    FileStorage
	hasher   *password.Hasher
	tokens   *token.Manager
	sessions *session.Store
	audit    *auditDispatcher
	metrics  *Metrics
}

// Close flushes and stops the audit dispatcher.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.audit != nil {
		s.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded due to
// dispatcher backpressure.
func (s *Service) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return s.metrics.Snapshot()
}

func (s *Service) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

// VerifyAccess verifies an access-class token and returns its claims.
// It is pure: no store round-trips, suitable for per-request middleware.
// All verification failures collapse to [ErrUnauthorized].
func (s *Service) VerifyAccess(tokenStr string) (*token.AccessClaims, error) {
	if s == nil || s.tokens == nil {
		return nil, ErrServiceNotReady
	}
	claims, err := s.tokens.ParseAccess(tokenStr)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// CurrentUser resolves an access token to the sanitized identity it
// authenticates.
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*PublicUser, error) {
	claims, err := s.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Join(ErrInternal, err)
	}

	return sanitizeUser(user), nil
}

// issuePair creates a fresh access/refresh pair and persists the refresh
// token as the user's single current one, overwriting any prior value.
func (s *Service) issuePair(ctx context.Context, user UserRecord) (TokenPair, error) {
	access, err := s.tokens.CreateAccess(token.Identity{
		UserID:   user.UserID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})
	if err != nil {
		return TokenPair{}, errors.Join(ErrInternal, err)
	}

	refresh, err := s.tokens.CreateRefresh(user.UserID)
	if err != nil {
		return TokenPair{}, errors.Join(ErrInternal, err)
	}

	if err := s.sessions.Set(ctx, user.UserID, refresh, s.config.Token.RefreshTTL); err != nil {
		return TokenPair{}, errors.Join(ErrInternal, err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeIdentifier(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
