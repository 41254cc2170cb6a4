package auth

import (
	"errors"
	"fmt"
	"time"

	"magicwords/core/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Subject is the account data embedded in issued tokens.
type Subject struct {
	ID          int64
	Username    string
	PhoneNumber string
	Email       string
	ImageURL    *string
	IsSuperuser bool
}

// Claims is the payload of both token kinds.
type Claims struct {
	TokenType   string  `json:"token_type"`
	UserID      int64   `json:"user_id"`
	Username    string  `json:"username"`
	PhoneNumber string  `json:"phone_number"`
	Email       string  `json:"email"`
	Image       *string `json:"image"`
	IsSuperuser bool    `json:"is_superuser"`
	jwt.RegisteredClaims
}

// TokenPair is returned on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}


// IssuePair signs a fresh access and refresh token for s.
func (i *Issuer) IssuePair(s Subject) (TokenPair, error) {
	access, err := i.sign(s, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(s, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess signs an access token only.
func (i *Issuer) IssueAccess(s Subject) (string, error) {
	return i.sign(s, TokenTypeAccess, i.accessTTL)
}

func (i *Issuer) sign(s Subject, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		TokenType:   tokenType,
		UserID:      s.ID,
		Username:    s.Username,
		PhoneNumber: s.PhoneNumber,
		Email:       s.Email,
		Image:       s.ImageURL,
		IsSuperuser: s.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Parse verifies signature, issuer, expiry and token type. Every failure
// wraps apperr.ErrUnauthorized.
func (i *Issuer) Parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%w: token has wrong type", apperr.ErrUnauthorized)
	}
	return claims, nil
}
