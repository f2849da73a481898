package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar - HTTP

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Campos estándar - negocio

// ClientID crea un campo para el client_id OAuth.
func ClientID(v string) zap.Field {
	return zap.String("client_id", v)
}

// UserID crea un campo para el ID de usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// GrantType crea un campo para el grant_type del token endpoint.
func GrantType(v string) zap.Field {
	return zap.String("grant_type", v)
}

// ResponseType crea un campo para el response_type del authorize endpoint.
func ResponseType(v string) zap.Field {
	return zap.String("response_type", v)
}

// Scope crea un campo para el scope solicitado/otorgado.
func Scope(v string) zap.Field {
	return zap.String("scope", v)
}

// Campos estándar - infraestructura

// Layer identifica la capa (controller, service, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Op identifica la operación (ej: "oauth.token.session").
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo de error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Any crea un campo genérico para valores arbitrarios (ej: panics).
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
