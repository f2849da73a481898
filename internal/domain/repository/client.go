package repository

import (
	"context"
)

const (
	ClientTypePublic       = "public"
	ClientTypeConfidential = "confidential"
)

// Client representa un cliente OAuth2/OIDC registrado.
//
// Un client "public" no posee un secret verificable: se identifica solo por
// client_id. Un client "trusted" saltea la pantalla de consent.
type Client struct {
	ID           string
	ClientID     string // identificador público
	Name         string
	Type         string // "public" | "confidential"
	Trusted      bool
	RedirectURIs []string
	Secret       string // vacío para clients public
	OwnerUserID  string
}

// IsPublic reporta si el client es de tipo public.
func (c *Client) IsPublic() bool {
	return c != nil && c.Type == ClientTypePublic
}

// ClientRepository define operaciones de lectura sobre clients.
// El registro/alta de clients es responsabilidad de otro sistema.
type ClientRepository interface {
	// Get obtiene un client por su client_id público.
	// Retorna ErrNotFound si no existe.
	Get(ctx context.Context, clientID string) (*Client, error)
}
