// Package logging provides structured logging for Kanvas.
//
// It wraps Go's log/slog with a JSON handler and adds case-file context
// (case path, session ID, access mode) as persistent attributes on child
// loggers, so every entry about a session can be correlated after the fact.
//
// # Log File
//
// When a state directory is given, logs go to {stateDir}/kanvas.log through a
// [RotatingWriter] that rolls the file over at a size limit and keeps a fixed
// number of numbered backups. Without a state directory logs go to stderr.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(stateDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	caseLog := logger.WithCase("/cases/acme.xlsx").WithMode("read-only")
//	caseLog.Info("case opened", "sheets", 4)
//
// Tests use [NopLogger].
package logging
