package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/honeynil/content-checkout/pkg/errors"
)

// Identity is the authenticated caller: the customer and the tenant they act in.
type Identity struct {
	CustomerID     string
	OrganizationID string
}

// Claims are issued upstream; sub carries the customer id.
type Claims struct {
	OrganizationID string `json:"org_id"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue signs an HS256 token. The service never logs anyone in; this exists for
// operator tooling and tests.
func (s *TokenService) Issue(identity Identity, jti string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not set")
	}
	now := time.Now()
	claims := Claims{
		OrganizationID: identity.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.CustomerID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token: %v", pkgerrors.ErrUnauthorized, err)
	}
	if claims.Subject == "" || claims.OrganizationID == "" {
		return nil, fmt.Errorf("%w: token missing sub or org_id", pkgerrors.ErrUnauthorized)
	}
	return claims, nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
