package jwt

import (
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("secret", time.Hour)
	id := uuid.New()

	token, err := m.Generate(id, "alice@x.com", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != id.String() || claims.Email != "alice@x.com" || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("expected 1h lifetime, got %v", got)
	}
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("secret", -time.Minute)

	token, err := m.Generate(uuid.New(), "a@x.com", "a")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerify_ForeignSecret(t *testing.T) {
	token, err := NewManager("other", time.Hour).Generate(uuid.New(), "a@x.com", "a")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewManager("secret", time.Hour).Verify(token); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID: uuid.NewString(),
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewManager("secret", time.Hour).Verify(token); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestVerify_Garbage(t *testing.T) {
	m := NewManager("secret", time.Hour)
	for _, tok := range []string{"", "abc", strings.Repeat("x.", 3)} {
		if _, err := m.Verify(tok); err == nil {
			t.Errorf("expected %q to be rejected", tok)
		}
	}
}
