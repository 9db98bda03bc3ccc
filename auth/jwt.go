package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"betpool/models"
	"betpool/service"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "betpool"

// Claims is the token payload. Role is advisory; the stored role wins.
type Claims struct {
	UserID int64       `json:"userId"`
	Email  string      `json:"email,omitempty"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserLookup loads the current state of an account
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// Verifier issues and checks HS256 bearer tokens
type Verifier struct {
	secret []byte
	users  UserLookup
	now    func() time.Time
}

// NewVerifier creates a verifier signing with secret. users may be nil, in
// which case the role carried by the token is trusted.
func NewVerifier(secret string, users UserLookup) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		users:  users,
		now:    time.Now,
	}
}

// Issue signs a token for user valid for ttl
func (v *Verifier) Issue(user *models.User, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if user.Email != nil {
		claims.Email = *user.Email
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify parses a raw token and returns the principal it identifies. Any
// failure is reported as service.ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, raw string) (models.Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %w", service.ErrUnauthorized, err)
	}
	if claims.UserID <= 0 {
		return models.Principal{}, fmt.Errorf("%w: token has no user", service.ErrUnauthorized)
	}

	principal := models.Principal{UserID: claims.UserID, Role: claims.Role}
	if v.users == nil {
		return principal, nil
	}

	user, err := v.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, service.ErrNotFound) {
		return models.Principal{}, fmt.Errorf("%w: user %d no longer exists", service.ErrUnauthorized, claims.UserID)
	}
	if err != nil {
		return models.Principal{}, err
	}
	principal.Role = user.Role
	return principal, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
