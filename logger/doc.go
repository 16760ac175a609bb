// Package logger provides structured logging backed by zerolog.
//
// Loggers are constructed once at startup and passed to the components that
// need them; there is no package-level logger.
//
//	log := logger.New(&cfg.Logging, cfg.Name).WithComponent("transcriber")
//	log.Info("Job started", logger.Fields(logger.FieldJobName, name))
package logger
