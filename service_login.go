package accounts

import (
	"context"
	"errors"
)

// Login authenticates by username or email plus password and, on success,
// issues a fresh token pair. At least one of username/email must be
// supplied. Persisting the new refresh token overwrites any prior one, so
// a login on a second device invalidates the first device's refresh token
// as a side effect.
func (s *Service) Login(ctx context.Context, username, email, plainPassword string) (*LoginResult, error) {
	if s == nil || s.users == nil {
		return nil, ErrServiceNotReady
	}

	username = normalizeIdentifier(username)
	email = normalizeIdentifier(email)
	if username == "" && email == "" {
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLoginFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{"reason": "missing_identifier"}
		})
		return nil, ErrValidation
	}
	if plainPassword == "" {
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLoginFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{"reason": "missing_password"}
		})
		return nil, ErrValidation
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLoginFailure, false, "", ErrUserNotFound, func() map[string]string {
			return map[string]string{"reason": "user_not_found"}
		})
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Join(ErrInternal, err)
	}

	ok, err := s.hasher.Verify(plainPassword, user.PasswordHash)
	if err != nil || !ok {
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, err, func() map[string]string {
			return map[string]string{"reason": "issue_failed"}
		})
		return nil, err
	}

	s.metricInc(MetricLoginSuccess)
	s.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, nil, nil)

	return &LoginResult{
		User:   sanitizeUser(user),
		Tokens: pair,
	}, nil
}

// Logout clears the stored refresh token for userID. It is idempotent:
// logging out an already logged-out user succeeds.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if s == nil || s.sessions == nil {
		return ErrServiceNotReady
	}
	if userID == "" {
		return ErrValidation
	}

	if err := s.sessions.Clear(ctx, userID); err != nil {
		s.emitAudit(ctx, auditEventLogout, false, userID, err, nil)
		return errors.Join(ErrInternal, err)
	}

	s.metricInc(MetricLogout)
	s.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)

	return nil
}
