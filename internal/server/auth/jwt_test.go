package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	userID := "user-123"

	tok, err := GenerateToken(userID, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	gotUserID, err := GetUserIDFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetUserIDFromToken error: %v", err)
	}
	if gotUserID != userID {
		t.Fatalf("userID mismatch: got %q want %q", gotUserID, userID)
	}
}

func TestGenerateToken_NoExpiryWhenZeroValidity(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("u0", secret, 0)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) { return secret, nil }); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("expected no exp claim, got %v", claims.ExpiresAt)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti claim to be set")
	}
}

func TestGenerateToken_UserIDInSubject(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("u-sub", secret, 0)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	raw := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(tok, raw, func(*jwt.Token) (interface{}, error) { return secret, nil }); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if raw["sub"] != "u-sub" {
		t.Fatalf("sub claim: got %v want %q", raw["sub"], "u-sub")
	}
	if _, ok := raw["uid"]; ok {
		t.Fatalf("unexpected uid claim in %v", raw)
	}
}

func TestGenerateToken_DistinctPerCall(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	a, err := GenerateToken("u1", secret, 0)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	b, err := GenerateToken("u1", secret, 0)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if a == b {
		t.Fatalf("two tokens for the same user must differ")
	}
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := GenerateToken("u1", secret, -1*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = GetUserIDFromToken(tok, secret)
	if err != common.ErrTokenExpired {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestGetUserIDFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("u2", []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = GetUserIDFromToken(tok, []byte("wrong-secret"))
	if err != common.ErrMalformedToken {
		t.Fatalf("expected common.ErrMalformedToken, got %v", err)
	}
}

func TestGetUserIDFromToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := GetUserIDFromToken("not.a.jwt", []byte("k"))
	if err != common.ErrMalformedToken {
		t.Fatalf("expected common.ErrMalformedToken, got %v", err)
	}
}

func TestGetUserIDFromToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u3"}})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	if _, err := GetUserIDFromToken(s, []byte("k")); err != common.ErrMalformedToken {
		t.Fatalf("expected common.ErrMalformedToken, got %v", err)
	}
}

func TestGetUserIDFromToken_MissingUserID(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{})
	s, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	if _, err := GetUserIDFromToken(s, secret); err != common.ErrMalformedToken {
		t.Fatalf("expected common.ErrMalformedToken, got %v", err)
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	c := NewTokenCodec([]byte("codec-secret"), 0)
	tok, err := c.Encode("u-9")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	id, err := c.Decode(tok)
	if err != nil || id != "u-9" {
		t.Fatalf("Decode = %q, %v", id, err)
	}

	other := NewTokenCodec([]byte("another"), 0)
	if _, err := other.Decode(tok); err == nil {
		t.Fatalf("token must not decode under a different secret")
	}
}
