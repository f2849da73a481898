package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
)

// Memory es un Store en memoria para desarrollo y tests.
// Todas las operaciones son seguras para uso concurrente.
type Memory struct {
	mu       sync.Mutex
	clients  map[string]*repository.Client // por client_id
	users    map[string]*repository.User   // por ID
	byName   map[string]string             // username -> userID
	access   map[string]*repository.AccessToken
	refresh  map[string]*repository.RefreshToken // por token hash
	refByID  map[string]*repository.RefreshToken
}

// NewMemory crea un Store en memoria vacío.
func NewMemory() *Memory {
	return &Memory{
		clients: make(map[string]*repository.Client),
		users:   make(map[string]*repository.User),
		byName:  make(map[string]string),
		access:  make(map[string]*repository.AccessToken),
		refresh: make(map[string]*repository.RefreshToken),
		refByID: make(map[string]*repository.RefreshToken),
	}
}

func (m *Memory) Clients() repository.ClientRepository { return (*memClients)(m) }
func (m *Memory) Users() repository.UserRepository     { return (*memUsers)(m) }
func (m *Memory) Tokens() repository.TokenRepository   { return (*memTokens)(m) }

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close()                     {}

// AddClient registra un client (seed para dev/tests).
func (m *Memory) AddClient(c *repository.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	m.clients[cp.ClientID] = &cp
}

// AddUser registra un usuario (seed para dev/tests).
func (m *Memory) AddUser(u *repository.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.users[cp.ID] = &cp
	m.byName[strings.ToLower(cp.Username)] = cp.ID
}

// --- clients ---

type memClients Memory

func (m *memClients) Get(_ context.Context, clientID string) (*repository.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// --- users ---

type memUsers Memory

func (m *memUsers) GetByUsername(_ context.Context, username string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byName[strings.ToLower(username)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, userID string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// --- tokens ---

type memTokens Memory

func (m *memTokens) CreateAccess(_ context.Context, in repository.CreateAccessTokenInput) (*repository.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	at := &repository.AccessToken{
		ID:        uuid.NewString(),
		Token:     in.Token,
		UserID:    in.UserID,
		ClientID:  in.ClientID,
		Scope:     in.Scope,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(in.TTLSeconds) * time.Second),
	}
	m.access[at.Token] = at
	cp := *at
	return &cp, nil
}

func (m *memTokens) GetAccess(_ context.Context, token string) (*repository.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.access[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if time.Now().After(at.ExpiresAt) {
		return nil, repository.ErrTokenExpired
	}
	cp := *at
	return &cp, nil
}

func (m *memTokens) CreateRefresh(_ context.Context, in repository.CreateRefreshTokenInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	rt := &repository.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		ClientID:  in.ClientID,
		TokenHash: in.TokenHash,
		Scope:     in.Scope,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(in.TTLSeconds) * time.Second),
	}
	m.refresh[rt.TokenHash] = rt
	m.refByID[rt.ID] = rt
	return rt.ID, nil
}

// ConsumeRefreshByHash es atómico bajo el mutex del store: dos redenciones
// concurrentes del mismo hash producen exactamente un éxito.
func (m *memTokens) ConsumeRefreshByHash(_ context.Context, tokenHash string) (*repository.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.refresh[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rt.RevokedAt != nil {
		return nil, repository.ErrTokenRevoked
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, repository.ErrTokenExpired
	}
	now := time.Now()
	rt.RevokedAt = &now
	cp := *rt
	return &cp, nil
}

func (m *memTokens) RevokeAllByUser(_ context.Context, userID, clientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	n := 0
	for _, rt := range m.refresh {
		if rt.UserID != userID || rt.RevokedAt != nil {
			continue
		}
		if clientID != "" && rt.ClientID != clientID {
			continue
		}
		rt.RevokedAt = &now
		n++
	}
	return n, nil
}
