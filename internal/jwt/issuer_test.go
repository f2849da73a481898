package jwt_test

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	"github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/scope"
)

func testUser() *repository.User {
	return &repository.User{
		ID:            "u-1",
		Username:      "alice",
		Email:         "alice@example.com",
		EmailVerified: true,
		Name:          "Alice Liddell",
		GivenName:     "Alice",
		FamilyName:    "Liddell",
	}
}

func newTestIssuer(t *testing.T) *jwt.Issuer {
	t.Helper()
	key, err := jwt.NewDevEd25519("kid-test")
	if err != nil {
		t.Fatalf("NewDevEd25519: %v", err)
	}
	return jwt.NewIssuer("http://issuer.test", key)
}

func TestIssueIDToken_PublicClientUsesServerKey(t *testing.T) {
	iss := newTestIssuer(t)
	reg := scope.Default()
	set, _ := reg.Parse("openid profile")
	client := &repository.Client{ClientID: "spa", Type: repository.ClientTypePublic}

	raw, err := iss.IssueIDToken(reg, set, testUser(), client, "nonce-1")
	if err != nil {
		t.Fatalf("IssueIDToken: %v", err)
	}

	claims := jwtv5.MapClaims{}
	tok, err := jwtv5.ParseWithClaims(raw, claims, iss.Keyfunc(client))
	if err != nil || !tok.Valid {
		t.Fatalf("parse: %v", err)
	}
	if tok.Method.Alg() != "EdDSA" {
		t.Fatalf("alg = %s, want EdDSA", tok.Method.Alg())
	}
	if tok.Header["kid"] != "kid-test" {
		t.Fatalf("kid = %v", tok.Header["kid"])
	}
	if claims["iss"] != "http://issuer.test" || claims["sub"] != "u-1" || claims["aud"] != "spa" {
		t.Fatalf("claims = %v", claims)
	}
	if claims["nonce"] != "nonce-1" {
		t.Fatalf("nonce = %v", claims["nonce"])
	}

	// profile sí, email no.
	if claims["preferred_username"] != "alice" || claims["name"] != "Alice Liddell" {
		t.Fatalf("profile claims = %v", claims)
	}
	if _, ok := claims["email"]; ok {
		t.Fatal("email claim without email scope")
	}
}

func TestIssueIDToken_ConfidentialClientUsesHS256(t *testing.T) {
	iss := newTestIssuer(t)
	reg := scope.Default()
	set, _ := reg.Parse("openid email")
	client := &repository.Client{ClientID: "portal", Type: repository.ClientTypeConfidential, Secret: "s3cret"}

	raw, err := iss.IssueIDToken(reg, set, testUser(), client, "")
	if err != nil {
		t.Fatalf("IssueIDToken: %v", err)
	}

	claims := jwtv5.MapClaims{}
	tok, err := jwtv5.ParseWithClaims(raw, claims, iss.Keyfunc(client))
	if err != nil || !tok.Valid {
		t.Fatalf("parse: %v", err)
	}
	if tok.Method.Alg() != "HS256" {
		t.Fatalf("alg = %s, want HS256", tok.Method.Alg())
	}
	if claims["email"] != "alice@example.com" || claims["email_verified"] != true {
		t.Fatalf("email claims = %v", claims)
	}
	if _, ok := claims["nonce"]; ok {
		t.Fatal("empty nonce must be omitted")
	}
	if _, ok := claims["preferred_username"]; ok {
		t.Fatal("profile claim without profile scope")
	}

	// exp respeta el TTL del issuer.
	exp, _ := claims.GetExpirationTime()
	if exp == nil || time.Until(exp.Time) > iss.TTL+time.Minute {
		t.Fatalf("exp = %v", exp)
	}
}

func TestIssueIDToken_RequiresUserAndClient(t *testing.T) {
	iss := newTestIssuer(t)
	reg := scope.Default()
	set, _ := reg.Parse("openid")

	if _, err := iss.IssueIDToken(reg, set, nil, &repository.Client{}, ""); err == nil {
		t.Fatal("nil user must fail")
	}
	if _, err := iss.IssueIDToken(reg, set, testUser(), nil, ""); err == nil {
		t.Fatal("nil client must fail")
	}
}
