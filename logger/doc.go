// Package logger provides structured logging for resolvekit using zerolog.
//
// Each engine component logs through a named logger obtained from Get, so the
// compiler, interpreter, scopes and container can be told apart in output:
//
//	log := logger.Get("resolver.compiler")
//	log.Debug("compiled", logger.Fields(logger.FieldServiceType, "*app.Repo"))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
