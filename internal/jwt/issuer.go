// Package jwt emite ID tokens OIDC firmados.
//
// La firma depende del tipo de client: confidential firma HS256 con el secret
// del client (el client puede verificar con lo que ya posee); public firma
// EdDSA con la clave del servidor. El manejo de claves es externo a este
// paquete: el Issuer recibe la clave ya cargada.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	"github.com/dropDatabas3/littlejohn/internal/scope"
)

// Issuer firma ID tokens para un issuer URL fijo.
type Issuer struct {
	Iss string        // "iss"
	Key *ServerKey    // clave asimétrica para clients public
	TTL time.Duration // TTL de ID tokens (ej: 30m)
}

// NewIssuer crea un Issuer con TTL default de 30 minutos.
func NewIssuer(iss string, key *ServerKey) *Issuer {
	return &Issuer{
		Iss: iss,
		Key: key,
		TTL: 30 * time.Minute,
	}
}

// IssueIDToken construye y firma un ID token para el par user/client.
//
// Claims base: iss, sub, aud (= client_id), iat, exp y nonce si está presente.
// El resto se gatea por scope: "profile" agrega name/given_name/family_name/
// preferred_username, "email" agrega email/email_verified.
func (i *Issuer) IssueIDToken(reg *scope.Registry, set scope.Set, user *repository.User, client *repository.Client, nonce string) (string, error) {
	if user == nil || client == nil {
		return "", errors.New("jwt: user and client required")
	}

	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": user.ID,
		"aud": client.ClientID,
		"iat": now.Unix(),
		"exp": now.Add(i.TTL).Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}

	if set.Has(reg, "profile") {
		claims["preferred_username"] = user.Username
		if user.Name != "" {
			claims["name"] = user.Name
		}
		if user.GivenName != "" {
			claims["given_name"] = user.GivenName
		}
		if user.FamilyName != "" {
			claims["family_name"] = user.FamilyName
		}
	}
	if set.Has(reg, "email") {
		claims["email"] = user.Email
		claims["email_verified"] = user.EmailVerified
	}

	if client.Secret != "" {
		// Confidential: HS256 con el secret del client.
		tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
		tk.Header["typ"] = "JWT"
		return tk.SignedString([]byte(client.Secret))
	}

	// Public: EdDSA con la clave del servidor.
	if i.Key == nil {
		return "", errors.New("jwt: no server key configured")
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Key.KID
	tk.Header["typ"] = "JWT"
	return tk.SignedString(i.Key.Priv)
}

// Keyfunc devuelve un jwt.Keyfunc para verificar tokens firmados por este
// Issuer: HS256 con el secret del client, o la pública del servidor.
func (i *Issuer) Keyfunc(client *repository.Client) jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		switch t.Method.Alg() {
		case "HS256":
			if client == nil || client.Secret == "" {
				return nil, errors.New("jwt: no client secret for HS256")
			}
			return []byte(client.Secret), nil
		case "EdDSA":
			if i.Key == nil {
				return nil, errors.New("jwt: no server key")
			}
			return i.Key.Pub, nil
		default:
			return nil, errors.New("jwt: unexpected signing method")
		}
	}
}
