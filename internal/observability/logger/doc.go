// Package logger expone un logger Zap único para todo el proceso, con scoping por contexto.
//
// Inicialización (una vez, desde el comando serve):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En controllers y services se usa siempre el logger del request:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("token.password"))
//	log.Warn("client rejected", logger.ClientID(clientID))
//
// Si el middleware de logging no corrió (tests, CLI), From cae al singleton.
package logger
