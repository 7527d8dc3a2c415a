// Package logger provee el logger estructurado del servicio basado en zap.
//
// Uso básico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "heimdall"})
//	defer logger.Sync()
//
//	log := logger.Named("issuer")
//	log.Info("atk issued", logger.JTI(jti), logger.Owner(owner))
//
// En handlers HTTP, el middleware de logging inyecta un logger scoped con
// request_id en el contexto; recuperarlo con logger.From(ctx).
package logger
