package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Register creates a new account.
//
// The flow mirrors the registration state machine end to end: validate all
// required fields after trimming, reject username/email conflicts, upload
// the mandatory avatar (cover image optional), hash the password, persist
// with lowercased username/email, and return the identity with credential
// material stripped.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*PublicUser, error) {
	if s == nil || s.users == nil {
		return nil, ErrServiceNotReady
	}

	username := normalizeIdentifier(req.Username)
	email := normalizeIdentifier(req.Email)
	fullName := strings.TrimSpace(req.FullName)

	if username == "" || email == "" || fullName == "" || req.Password == "" {
		s.metricInc(MetricRegisterFailure)
		s.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{"reason": "missing_fields"}
		})
		return nil, ErrValidation
	}
	if req.AvatarPath == "" {
		s.metricInc(MetricRegisterFailure)
		s.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{"reason": "avatar_required"}
		})
		return nil, ErrValidation
	}

	_, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		s.metricInc(MetricRegisterDuplicate)
		s.emitAudit(ctx, auditEventRegisterDuplicate, false, "", ErrDuplicateUser, func() map[string]string {
			return map[string]string{"username": username}
		})
		return nil, ErrDuplicateUser
	case !errors.Is(err, ErrUserNotFound):
		s.metricInc(MetricRegisterFailure)
		s.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{"reason": "lookup_failed"}
		})
		return nil, errors.Join(ErrInternal, err)
	}

	avatarURL, err := s.uploadFile(ctx, req.AvatarPath)
	if err != nil {
		s.metricInc(MetricRegisterFailure)
		s.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrUploadFailed, func() map[string]string {
			return map[string]string{"reason": "avatar_upload"}
		})
		return nil, err
	}

	coverURL := ""
	if req.CoverImagePath != "" {
		coverURL, err = s.uploadFile(ctx, req.CoverImagePath)
		if err != nil {
			s.metricInc(MetricRegisterFailure)
			s.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrUploadFailed, func() map[string]string {
				return map[string]string{"reason": "cover_upload"}
			})
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.metricInc(MetricRegisterFailure)
		s.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{"reason": "hash_failed"}
		})
		return nil, errors.Join(ErrInternal, err)
	}

	created, err := s.users.CreateUser(ctx, CreateUserInput{
		UserID:        uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
	})
	if err != nil {
		// A concurrent registration may win the uniqueness race between
		// the lookup above and this create.
		if errors.Is(err, ErrDuplicateUser) {
			s.metricInc(MetricRegisterDuplicate)
			s.emitAudit(ctx, auditEventRegisterDuplicate, false, "", ErrDuplicateUser, nil)
			return nil, ErrDuplicateUser
		}
		s.metricInc(MetricRegisterFailure)
		s.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{"reason": "create_failed"}
		})
		return nil, errors.Join(ErrInternal, err)
	}

	s.metricInc(MetricRegisterSuccess)
	s.emitAudit(ctx, auditEventRegisterSuccess, true, created.UserID, nil, nil)

	return sanitizeUser(created), nil
}

// ChangePassword verifies oldPassword against the stored hash and, on
// success, re-hashes and persists newPassword.
//
// The stored refresh token is deliberately left in place: an existing
// session survives its owner's password change. See DESIGN.md for the
// reasoning behind keeping that behavior.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if s == nil || s.hasher == nil {
		return ErrServiceNotReady
	}
	if userID == "" || oldPassword == "" || newPassword == "" {
		s.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrValidation, func() map[string]string {
			return map[string]string{"reason": "invalid_input"}
		})
		return ErrValidation
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrUserNotFound, func() map[string]string {
			return map[string]string{"reason": "user_not_found"}
		})
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return errors.Join(ErrInternal, err)
	}

	oldOK, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil || !oldOK {
		s.metricInc(MetricPasswordChangeInvalidOld)
		s.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, userID, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, err, func() map[string]string {
			return map[string]string{"reason": "hash_failed"}
		})
		return errors.Join(ErrInternal, err)
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		s.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, err, func() map[string]string {
			return map[string]string{"reason": "update_hash_failed"}
		})
		return errors.Join(ErrInternal, err)
	}

	s.metricInc(MetricPasswordChangeSuccess)
	s.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, nil, nil)

	return nil
}
