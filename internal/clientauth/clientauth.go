// Package clientauth resuelve la identidad del client en el token endpoint.
//
// Los clients public no tienen secret verificable: se identifican solo por
// client_id. Cada grant que admite clients public registra una Strategy que
// sabe extraer el client de los parámetros del request; agregar un grant
// nuevo no requiere tocar el resolver.
package clientauth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	tokens "github.com/dropDatabas3/littlejohn/internal/security/token"
)

// ErrInvalidClient indica que el client no existe o no pudo autenticarse.
var ErrInvalidClient = errors.New("invalid_client")

// Strategy extrae un public client de los parámetros de un token request.
type Strategy interface {
	// ResolveClient retorna el client si los parámetros lo identifican
	// correctamente. Retorna ErrInvalidClient en caso contrario.
	ResolveClient(ctx context.Context, params url.Values) (*repository.Client, error)
}

// Registry mapea grant_type -> Strategy.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry crea un registry vacío.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register asocia una Strategy a un grant_type. La última registración gana.
func (r *Registry) Register(grantType string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[grantType] = s
}

// For retorna la Strategy registrada para un grant_type.
func (r *Registry) For(grantType string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[grantType]
	return s, ok
}

// resolvePublic busca el client por client_id y exige que sea public.
// Un secret enviado por error se ignora: no hay nada que verificar contra él.
func resolvePublic(ctx context.Context, clients repository.ClientRepository, clientID string) (*repository.Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrInvalidClient
	}
	c, err := clients.Get(ctx, clientID)
	if err != nil || !c.IsPublic() {
		return nil, ErrInvalidClient
	}
	return c, nil
}

// PasswordStrategy identifica un public client en un password grant.
// Exige que el request tenga forma de password grant (username y password
// presentes); las credenciales en sí se validan después, contra el user store.
type PasswordStrategy struct {
	Clients repository.ClientRepository
}

func (s *PasswordStrategy) ResolveClient(ctx context.Context, params url.Values) (*repository.Client, error) {
	if params.Get("username") == "" || params.Get("password") == "" {
		return nil, ErrInvalidClient
	}
	return resolvePublic(ctx, s.Clients, params.Get("client_id"))
}

// SessionStrategy identifica un public client en un edx_session grant.
// El grant no lleva credenciales en el body: la autenticación del usuario
// viene de la sesión ya establecida.
type SessionStrategy struct {
	Clients repository.ClientRepository
}

func (s *SessionStrategy) ResolveClient(ctx context.Context, params url.Values) (*repository.Client, error) {
	return resolvePublic(ctx, s.Clients, params.Get("client_id"))
}

// ResolveConfidential autentica un client confidential por client_id + secret
// (comparación en tiempo constante). Usado por los grants estándar.
func ResolveConfidential(ctx context.Context, clients repository.ClientRepository, clientID, secret string) (*repository.Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrInvalidClient
	}
	c, err := clients.Get(ctx, clientID)
	if err != nil {
		return nil, ErrInvalidClient
	}
	if c.IsPublic() {
		// Public: identidad alcanza; un secret enviado de más se ignora.
		return c, nil
	}
	if c.Secret == "" || !tokens.ConstantTimeEq(c.Secret, secret) {
		return nil, ErrInvalidClient
	}
	return c, nil
}

// DefaultRegistry registra las strategies de los grants que aceptan clients
// public: password y edx_session.
func DefaultRegistry(clients repository.ClientRepository) *Registry {
	r := NewRegistry()
	r.Register("password", &PasswordStrategy{Clients: clients})
	r.Register("edx_session", &SessionStrategy{Clients: clients})
	return r
}
