// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs always go to stderr unless Config.Output says otherwise, because
// stdout carries encoded payloads.
//
// Components attach the same keys through the field helpers: the encoder tags
// entries with ForScript and logs Stages, the injector tags them with
// ForInjection and logs Encoded and Bytes per delivery.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.ForScript(s.Label()).Info("script encoded", logging.Bytes(len(payload)))
package logging
