// Package cache provee abstracciones para caching con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
//
// Guarda estado efímero del flujo OAuth: sesiones, authorization codes y
// consent challenges.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indica que la key no existe (o expiró).
var ErrNotFound = errors.New("cache: not found")

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina una key.
	Delete(ctx context.Context, key string) error

	// ConsumeOnce obtiene y elimina una key en una sola operación atómica.
	// De dos consumos concurrentes de la misma key, exactamente uno recibe
	// el valor; el otro recibe ErrNotFound. Usado para authorization codes
	// y consent challenges one-shot.
	ConsumeOnce(ctx context.Context, key string) ([]byte, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}
