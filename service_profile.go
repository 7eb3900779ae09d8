package accounts

import (
	"context"
	"errors"
	"strings"
)

// UpdateProfile updates the full name and/or email of an existing
// identity. At least one field must be supplied; email is lowercased and
// trimmed like at registration.
func (s *Service) UpdateProfile(ctx context.Context, userID, fullName, email string) (*PublicUser, error) {
	if s == nil || s.users == nil {
		return nil, ErrServiceNotReady
	}
	if userID == "" {
		return nil, ErrValidation
	}

	fullName = strings.TrimSpace(fullName)
	email = normalizeIdentifier(email)
	if fullName == "" && email == "" {
		s.emitAudit(ctx, auditEventProfileUpdate, false, userID, ErrValidation, func() map[string]string {
			return map[string]string{"reason": "no_fields"}
		})
		return nil, ErrValidation
	}

	update := ProfileUpdate{}
	if fullName != "" {
		update.FullName = &fullName
	}
	if email != "" {
		update.Email = &email
	}

	return s.applyProfileUpdate(ctx, userID, update, "profile")
}

// UpdateAvatar uploads a replacement avatar from a local temporary file
// and persists its URL.
func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (*PublicUser, error) {
	return s.updateImage(ctx, userID, localPath, "avatar")
}

// UpdateCoverImage uploads a replacement cover image from a local
// temporary file and persists its URL.
func (s *Service) UpdateCoverImage(ctx context.Context, userID, localPath string) (*PublicUser, error) {
	return s.updateImage(ctx, userID, localPath, "cover_image")
}

func (s *Service) updateImage(ctx context.Context, userID, localPath, field string) (*PublicUser, error) {
	if s == nil || s.users == nil {
		return nil, ErrServiceNotReady
	}
	if userID == "" || localPath == "" {
		s.emitAudit(ctx, auditEventProfileUpdate, false, userID, ErrValidation, func() map[string]string {
			return map[string]string{"reason": "missing_file", "field": field}
		})
		return nil, ErrValidation
	}

	url, err := s.uploadFile(ctx, localPath)
	if err != nil {
		s.metricInc(MetricUploadFailure)
		s.emitAudit(ctx, auditEventUploadFailure, false, userID, ErrUploadFailed, func() map[string]string {
			return map[string]string{"field": field}
		})
		return nil, err
	}

	update := ProfileUpdate{}
	if field == "avatar" {
		update.AvatarURL = &url
	} else {
		update.CoverImageURL = &url
	}

	return s.applyProfileUpdate(ctx, userID, update, field)
}

func (s *Service) applyProfileUpdate(ctx context.Context, userID string, update ProfileUpdate, field string) (*PublicUser, error) {
	updated, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		s.emitAudit(ctx, auditEventProfileUpdate, false, userID, err, func() map[string]string {
			return map[string]string{"reason": "update_failed", "field": field}
		})
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		if errors.Is(err, ErrDuplicateUser) {
			return nil, ErrDuplicateUser
		}
		return nil, errors.Join(ErrInternal, err)
	}

	s.metricInc(MetricProfileUpdate)
	s.emitAudit(ctx, auditEventProfileUpdate, true, userID, nil, func() map[string]string {
		return map[string]string{"field": field}
	})

	return sanitizeUser(updated), nil
}

// uploadFile hands localPath to the object-storage collaborator. Storage
// failures map to ErrUploadFailed; the collaborator contract guarantees
// the local temp file is deleted when the upload fails.
func (s *Service) uploadFile(ctx context.Context, localPath string) (string, error) {
	if s.files == nil {
		return "", ErrUploadFailed
	}
	url, err := s.files.Upload(ctx, localPath)
	if err != nil {
		return "", errors.Join(ErrUploadFailed, err)
	}
	return url, nil
}
