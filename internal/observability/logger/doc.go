// Package logger provee el logger estructurado (zap) del servicio.
//
// Uso:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token"))
//	log.Info("token issued", logger.ClientID(cid))
//
// Los middlewares inyectan un logger request-scoped en el contexto; From(ctx)
// cae al singleton si no hay logger en el contexto.
package logger
