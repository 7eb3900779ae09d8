package accounts

import (
	"context"
	"time"
)

// UserRecord is the full account record exchanged with [UserProvider].
// It carries the credential hash and the currently stored refresh token;
// neither field ever crosses the public API (see [PublicUser]).
type UserRecord struct {
	UserID        string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the sanitized identity returned by Service operations.
// Password hash and refresh token are stripped.
type PublicUser struct {
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TokenPair holds one access/refresh token pair. The access token is never
// persisted server-side; the refresh token is stored (one per user) to
// allow rotation and replay detection.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by [Service.Login].
type LoginResult struct {
	User   *PublicUser
	Tokens TokenPair
}

// RegisterRequest is the input for [Service.Register]. AvatarPath is the
// local temporary file to upload as the mandatory avatar; CoverImagePath
// is optional and may be empty.
type RegisterRequest struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// ProfileUpdate carries the mutable profile fields for
// [UserProvider.UpdateProfile]. Nil pointers leave the field unchanged.
type ProfileUpdate struct {
	FullName      *string
	Email         *string
	AvatarURL     *string
	CoverImageURL *string
}

// CreateUserInput is the input for [UserProvider.CreateUser]. Username and
// Email arrive lowercased and trimmed; PasswordHash is an argon2id PHC
// string, never a plaintext password.
type CreateUserInput struct {
	UserID        string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string
}

// UserProvider is the interface callers implement to integrate the service
// with their user database. Implementations must return
// [ErrUserNotFound] when a lookup matches nothing and [ErrDuplicateUser]
// when a create would violate username/email uniqueness. The provider owns
// the authoritative record; the service only reads snapshots and issues
// whole-field updates.
type UserProvider interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (UserRecord, error)
}

// FileStorage is the object-storage collaborator used for avatar and cover
// image uploads. Upload takes a local temporary file path and returns the
// public URL of the stored object. On failure the implementation must
// delete the local temporary file.
type FileStorage interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

func sanitizeUser(u UserRecord) *PublicUser {
	return &PublicUser{
		UserID:        u.UserID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}
