// Package token issues and verifies the two credential classes used by the
// account service: short-lived access tokens and long-lived refresh tokens.
//
// Each class is signed with its own HMAC secret so that compromise of one
// class cannot forge the other. Verification checks the signature before
// any claim, and a token of one class never verifies under the other's
// key.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed is returned when a token cannot be parsed at all.
	ErrMalformed = errors.New("token malformed")
	// ErrExpired is returned when a structurally valid, correctly signed
	// token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrSignatureInvalid is returned when the signature does not match
	// the configured key for the requested class.
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Config carries the signing material and validity windows for both token
// classes. Instances are treated as immutable after NewManager.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Manager is a pure issuer/verifier: no side effects, no storage. Safe for
// concurrent use.
type Manager struct {
	config Config
}

// AccessClaims are embedded in access tokens. Beyond the subject they
// carry the profile fields needed for stateless authorization checks.
type AccessClaims struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the subject. Refresh tokens grant nothing by
// themselves; they are exchanged, and the exchange is gated on the stored
// copy.
type RefreshClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// Identity is the claim set supplied when issuing an access token.
type Identity struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("both token class secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// CreateAccess issues an access-class token for the given identity with
// expiry AccessTTL from now.
func (m *Manager) CreateAccess(id Identity) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UID:      id.UserID,
		Username: id.Username,
		Email:    id.Email,
		FullName: id.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.AccessSecret)
}

// CreateRefresh issues a refresh-class token for the given subject with
// expiry RefreshTTL from now. Each token carries a unique jti so two
// tokens minted for the same subject in the same second still differ;
// rotation must always produce a distinct token for the replay gate to
// mean anything.
func (m *Manager) CreateRefresh(userID string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.RefreshSecret)
}

// ParseAccess verifies tokenStr against the access-class key and returns
// its claims. Failures classify as ErrSignatureInvalid, ErrExpired, or
// ErrMalformed.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims, m.config.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies tokenStr against the refresh-class key and returns
// its claims.
func (m *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims, m.config.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return classify(err)
	}
	if !tok.Valid {
		return ErrMalformed
	}
	return nil
}

// classify orders signature failures ahead of expiry: an attacker must not
// learn expiry state from an unverified token.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
