// Package auth holds the credential primitives: bearer token encoding and
// password hashing. Nothing here touches storage.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload. The user id travels in "sub"; the jti makes
// every issued token unique even for the same user and second.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a token for userID. A zero validityDuration produces
// a token without an expiry; it stays usable until revoked.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if validityDuration != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies the signature and returns the embedded user id.
// It does not consult storage: a revoked token still decodes.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrMalformedToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrMalformedToken
	}

	return claims.Subject, nil
}

// TokenCodec binds the signing secret and validity injected from config.
type TokenCodec struct {
	secret   []byte
	validity time.Duration
}

func NewTokenCodec(secret []byte, validity time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, validity: validity}
}

func (c *TokenCodec) Encode(userID string) (string, error) {
	return GenerateToken(userID, c.secret, c.validity)
}

func (c *TokenCodec) Decode(token string) (string, error) {
	return GetUserIDFromToken(token, c.secret)
}
