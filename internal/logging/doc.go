// Package logging provides structured logging utilities for calhighlight.
//
// This package centralizes logging patterns so that handlers, the calendar
// gateway and the assistant engines emit the same attribute names, using the
// standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.list")
//	logger.Info("listing appointments",
//	    logging.Provider("google"),
//	    logging.Status(logging.StatusSuccess))
//
// Never log access or refresh tokens directly:
//
//	logger.Debug("resolved token", logging.Session(token))
//
// # Security Considerations
//
//   - Tokens are reduced to a length indicator or a short fingerprint
//   - Attendee emails are hashed so log lines can be correlated without PII
package logging
