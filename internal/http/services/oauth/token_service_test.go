package oauth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
	"testing"

	oauth "github.com/dropDatabas3/littlejohn/internal/http/services/oauth"
)

func passwordRequest(clientID, username, password, scopes string) oauth.TokenRequest {
	params := url.Values{}
	params.Set("grant_type", "password")
	params.Set("client_id", clientID)
	params.Set("username", username)
	params.Set("password", password)
	if scopes != "" {
		params.Set("scope", scopes)
	}
	return oauth.TokenRequest{
		GrantType: "password",
		ClientID:  clientID,
		Scope:     scopes,
		Username:  username,
		Password:  password,
		Params:    params,
	}
}

func TestPasswordGrant_PublicClient(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(false).Token

	// Sin secret: el client public se identifica solo por client_id.
	resp, err := svc.Exchange(context.Background(), passwordRequest(publicClientID, testUsername, testPassword, "openid profile"))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected token response: %+v", resp)
	}
	if resp.RefreshToken == "" {
		t.Fatal("password grant should issue a refresh token")
	}
	if resp.ExpiresIn <= 0 {
		t.Fatalf("expires_in = %d, want > 0", resp.ExpiresIn)
	}

	// El access token quedó almacenado para este user/client.
	at, err := env.store.Tokens().GetAccess(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("GetAccess: %v", err)
	}
	if at.UserID != testUserID || at.ClientID != publicClientID {
		t.Fatalf("stored token owner = %s/%s", at.UserID, at.ClientID)
	}

	// openid en el scope: hay ID token, firmado con la clave del servidor.
	if resp.IDToken == "" {
		t.Fatal("openid scope should produce an id_token")
	}
	claims := env.parseIDToken(t, env.client(t, publicClientID), resp.IDToken)
	if claims["sub"] != testUserID || claims["aud"] != publicClientID {
		t.Fatalf("id_token sub/aud = %v/%v", claims["sub"], claims["aud"])
	}
	if claims["preferred_username"] != testUsername {
		t.Fatalf("preferred_username = %v", claims["preferred_username"])
	}
	if _, ok := claims["email"]; ok {
		t.Fatal("email claim present without email scope")
	}
}

func TestPasswordGrant_WithoutOpenID(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(false).Token

	resp, err := svc.Exchange(context.Background(), passwordRequest(publicClientID, testUsername, testPassword, "profile"))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if resp.IDToken != "" {
		t.Fatal("id_token issued without openid scope")
	}
}

func TestPasswordGrant_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(false).Token

	cases := []struct {
		name string
		req  oauth.TokenRequest
		want error
	}{
		{"wrong password", passwordRequest(publicClientID, testUsername, "nope", ""), oauth.ErrTokenInvalidGrant},
		{"unknown user", passwordRequest(publicClientID, "bob", testPassword, ""), oauth.ErrTokenInvalidGrant},
		{"unknown client", passwordRequest("ghost", testUsername, testPassword, ""), oauth.ErrTokenInvalidClient},
		{"bad scope", passwordRequest(publicClientID, testUsername, testPassword, "bogus"), oauth.ErrTokenInvalidScope},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Exchange(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestUnsupportedGrantType(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(false).Token

	_, err := svc.Exchange(context.Background(), oauth.TokenRequest{GrantType: "client_credentials"})
	if !errors.Is(err, oauth.ErrTokenUnsupportedGrantType) {
		t.Fatalf("err = %v, want unsupported_grant_type", err)
	}
}

func sessionRequest(env *testEnv, t *testing.T, clientID string, withSession bool) oauth.TokenRequest {
	params := url.Values{}
	params.Set("grant_type", "edx_session")
	params.Set("client_id", clientID)
	params.Set("scope", "openid profile")
	req := oauth.TokenRequest{
		GrantType: "edx_session",
		ClientID:  clientID,
		Scope:     "openid profile",
		Params:    params,
	}
	if withSession {
		req.Auth = env.session(t)
	}
	return req
}

func TestSessionGrant_DisabledFlag(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(false).Token // flag apagado

	// Aunque todo lo demás sea válido, responde invalid_grant: el flag no
	// debe ser observable desde afuera.
	_, err := svc.Exchange(context.Background(), sessionRequest(env, t, publicClientID, true))
	if !errors.Is(err, oauth.ErrTokenInvalidGrant) {
		t.Fatalf("err = %v, want invalid_grant", err)
	}
}

func TestSessionGrant_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(true).Token

	_, err := svc.Exchange(context.Background(), sessionRequest(env, t, publicClientID, false))
	if !errors.Is(err, oauth.ErrTokenInvalidGrant) {
		t.Fatalf("err = %v, want invalid_grant", err)
	}
}

func TestSessionGrant_UnknownClient(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(true).Token

	_, err := svc.Exchange(context.Background(), sessionRequest(env, t, "ghost", true))
	if !errors.Is(err, oauth.ErrTokenInvalidClient) {
		t.Fatalf("err = %v, want invalid_client", err)
	}
}

func TestSessionGrant_Success(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(true).Token

	resp, err := svc.Exchange(context.Background(), sessionRequest(env, t, publicClientID, true))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	// La respuesta tiene exactamente estos campos: en particular, NO hay
	// refresh token para el grant de sesión.
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(b, &raw)
	got := make([]string, 0, len(raw))
	for k := range raw {
		got = append(got, k)
	}
	sort.Strings(got)
	want := []string{"access_token", "expires_in", "id_token", "scope", "token_type"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("response keys = %v, want %v", got, want)
	}

	claims := env.parseIDToken(t, env.client(t, publicClientID), resp.IDToken)
	if claims["sub"] != testUserID {
		t.Fatalf("id_token sub = %v", claims["sub"])
	}
}

func TestRefreshGrant_RotationIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(false).Token
	ctx := context.Background()

	first, err := svc.Exchange(ctx, oauth.TokenRequest{
		GrantType:    "password",
		ClientID:     confClientID,
		ClientSecret: confSecret,
		Username:     testUsername,
		Password:     testPassword,
		Scope:        "profile",
		Params:       url.Values{},
	})
	if err != nil {
		t.Fatalf("password grant: %v", err)
	}

	refreshReq := oauth.TokenRequest{
		GrantType:    "refresh_token",
		ClientID:     confClientID,
		ClientSecret: confSecret,
		RefreshToken: first.RefreshToken,
	}
	second, err := svc.Exchange(ctx, refreshReq)
	if err != nil {
		t.Fatalf("refresh grant: %v", err)
	}
	if second.RefreshToken == "" || second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh grant must rotate the refresh token")
	}
	if second.Scope != "profile" {
		t.Fatalf("refreshed scope = %q, want profile", second.Scope)
	}

	// El refresh token original quedó revocado.
	if _, err := svc.Exchange(ctx, refreshReq); !errors.Is(err, oauth.ErrTokenInvalidGrant) {
		t.Fatalf("replayed refresh err = %v, want invalid_grant", err)
	}
}

func TestRefreshGrant_ClientMismatch(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(false).Token
	ctx := context.Background()

	first, err := svc.Exchange(ctx, passwordRequest(publicClientID, testUsername, testPassword, ""))
	if err != nil {
		t.Fatalf("password grant: %v", err)
	}

	_, err = svc.Exchange(ctx, oauth.TokenRequest{
		GrantType:    "refresh_token",
		ClientID:     confClientID,
		ClientSecret: confSecret,
		RefreshToken: first.RefreshToken,
	})
	if !errors.Is(err, oauth.ErrTokenInvalidGrant) {
		t.Fatalf("err = %v, want invalid_grant", err)
	}
}

func TestRefreshGrant_BadSecret(t *testing.T) {
	env := newTestEnv(t)
	svc := env.services(false).Token

	_, err := svc.Exchange(context.Background(), oauth.TokenRequest{
		GrantType:    "refresh_token",
		ClientID:     confClientID,
		ClientSecret: "wrong",
		RefreshToken: "whatever",
	})
	if !errors.Is(err, oauth.ErrTokenInvalidClient) {
		t.Fatalf("err = %v, want invalid_client", err)
	}
}
