package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/academica-erp/academica/internal/shared"
)

// TokenType distinguishes the two credentials handled by the issuer.
type TokenType string

const (
	// TokenTypeAccess is the short-lived credential presented on every request.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is the long-lived credential exchanged for new access tokens.
	TokenTypeRefresh TokenType = "refresh"
)

const tokenIssuer = "academica"

// Claims is the only supported JWT claims shape for this service.
type Claims struct {
	jwt.RegisteredClaims

	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	BranchID  int64     `json:"branch_id,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// Issuer signs and verifies HS256 credentials.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer constructs an Issuer.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL exposes the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL exposes the configured refresh token lifetime.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Sign mints a credential of the given type for the user. The returned JTI
// identifies the token server-side; only refresh JTIs are persisted.
func (i *Issuer) Sign(user *User, typ TokenType) (token string, jti string, err error) {
	ttl := i.accessTTL
	if typ == TokenTypeRefresh {
		ttl = i.refreshTTL
	}
	now := time.Now()
	jti = uuid.NewString()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.Email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		BranchID:  user.BranchID,
		TokenType: typ,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

// Verify parses and validates a credential, requiring the expected type.
// Any defect, including expiry and type mismatch, reads as Unauthenticated.
func (i *Issuer) Verify(token string, typ TokenType) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil || !parsed.Valid {
		return nil, shared.Unauthenticated("invalid or expired token")
	}
	if claims.TokenType != typ {
		return nil, shared.Unauthenticated("invalid or expired token")
	}
	return claims, nil
}
