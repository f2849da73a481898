package oauth_test

import (
	"context"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	oauth "github.com/dropDatabas3/littlejohn/internal/http/services/oauth"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/scope"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

const (
	testUserID     = "11111111-1111-1111-1111-111111111111"
	testUsername   = "alice"
	testPassword   = "wild-geese"
	publicClientID = "web-public"
	confClientID   = "portal"
	confSecret     = "portal-secret"
	thirdPartyID   = "thirdparty"
	redirectURI    = "http://client.example/cb"
)

// testEnv arma un entorno completo en memoria: store con un usuario y tres
// clients (public trusted, confidential trusted, public no trusted), cache y
// un issuer con clave Ed25519 efímera.
type testEnv struct {
	reg    *scope.Registry
	store  *store.Memory
	cache  cache.Client
	issuer *jwtx.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key, err := jwtx.NewDevEd25519("test-key")
	if err != nil {
		t.Fatalf("NewDevEd25519: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	mem := store.NewMemory()
	mem.AddUser(&repository.User{
		ID:            testUserID,
		Username:      testUsername,
		Email:         "alice@example.com",
		EmailVerified: true,
		Name:          "Alice Liddell",
		GivenName:     "Alice",
		FamilyName:    "Liddell",
		PasswordHash:  string(hash),
	})
	mem.AddClient(&repository.Client{
		ClientID:     publicClientID,
		Name:         "Web SPA",
		Type:         repository.ClientTypePublic,
		Trusted:      true,
		RedirectURIs: []string{redirectURI},
	})
	mem.AddClient(&repository.Client{
		ClientID:     confClientID,
		Name:         "Portal",
		Type:         repository.ClientTypeConfidential,
		Trusted:      true,
		Secret:       confSecret,
		RedirectURIs: []string{redirectURI},
	})
	mem.AddClient(&repository.Client{
		ClientID:     thirdPartyID,
		Name:         "Third Party",
		Type:         repository.ClientTypePublic,
		Trusted:      false,
		RedirectURIs: []string{redirectURI},
	})

	return &testEnv{
		reg:    scope.Default(),
		store:  mem,
		cache:  cache.NewMemory(time.Hour),
		issuer: jwtx.NewIssuer("http://issuer.test", key),
	}
}

func (e *testEnv) services(allowSession bool) oauth.Services {
	return oauth.NewServices(oauth.Deps{
		Store:             e.store,
		Cache:             e.cache,
		Issuer:            e.issuer,
		Scopes:            e.reg,
		AllowSessionGrant: allowSession,
	})
}

func (e *testEnv) user(t *testing.T) *repository.User {
	t.Helper()
	u, err := e.store.Users().GetByID(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return u
}

func (e *testEnv) client(t *testing.T, clientID string) *repository.Client {
	t.Helper()
	c, err := e.store.Clients().Get(context.Background(), clientID)
	if err != nil {
		t.Fatalf("Clients.Get(%q): %v", clientID, err)
	}
	return c
}

// session devuelve un AuthContext autenticado para el usuario de prueba.
func (e *testEnv) session(t *testing.T) oauth.AuthContext {
	return oauth.AuthContext{User: e.user(t), SessionValid: true}
}

// parseIDToken verifica la firma del ID token (con la clave que corresponda
// al client) y devuelve los claims.
func (e *testEnv) parseIDToken(t *testing.T, client *repository.Client, raw string) jwtv5.MapClaims {
	t.Helper()
	claims := jwtv5.MapClaims{}
	tok, err := jwtv5.ParseWithClaims(raw, claims, e.issuer.Keyfunc(client))
	if err != nil {
		t.Fatalf("parse id_token: %v", err)
	}
	if !tok.Valid {
		t.Fatal("id_token signature invalid")
	}
	return claims
}
