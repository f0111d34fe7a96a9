package security

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	testIssuer   = "cwrk-planet/auth-service"
	testAudience = "cwrk-planet"
)

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.StandardClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func validClaims(sub string, now time.Time) jwt.StandardClaims {
	return jwt.StandardClaims{
		Subject:   sub,
		Issuer:    testIssuer,
		Audience:  testAudience,
		IssuedAt:  now.Unix(),
		NotBefore: now.Unix(),
		ExpiresAt: now.Add(15 * time.Minute).Unix(),
	}
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	key := newTestKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	token := signToken(t, key, validClaims("user-42", time.Now()))
	userID, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("userID = %q, want user-42", userID)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	key := newTestKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	claims := validClaims("user-42", time.Now().Add(-time.Hour))
	claims.ExpiresAt = time.Now().Add(-30 * time.Minute).Unix()

	if _, err := v.VerifyToken(signToken(t, key, claims)); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifyTokenRejectsWrongIssuer(t *testing.T) {
	key := newTestKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	claims := validClaims("user-42", time.Now())
	claims.Issuer = "someone-else"

	_, err := v.VerifyToken(signToken(t, key, claims))
	if !errors.Is(err, ErrInvalidIssuer) {
		t.Fatalf("err = %v, want ErrInvalidIssuer", err)
	}
}

func TestVerifyTokenRejectsWrongAudience(t *testing.T) {
	key := newTestKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	claims := validClaims("user-42", time.Now())
	claims.Audience = "other-app"

	_, err := v.VerifyToken(signToken(t, key, claims))
	if !errors.Is(err, ErrInvalidAudience) {
		t.Fatalf("err = %v, want ErrInvalidAudience", err)
	}
}

func TestVerifyTokenRejectsEmptySubject(t *testing.T) {
	key := newTestKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	_, err := v.VerifyToken(signToken(t, key, validClaims("", time.Now())))
	if !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("err = %v, want ErrInvalidSubject", err)
	}
}

func TestVerifyTokenRejectsWrongSigningMethod(t *testing.T) {
	key := newTestKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("user-42", time.Now())).
		SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}

	if _, err := v.VerifyToken(s); err == nil {
		t.Fatal("expected error for HS256 token")
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	key := newTestKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	if _, err := v.VerifyToken("not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}
