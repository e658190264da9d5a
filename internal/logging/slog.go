package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Attribute keys shared by every package that logs.
const (
	KeyOperation = "operation"
	KeyProvider  = "provider"
	KeyPhase     = "phase"
	KeyModel     = "model"
	KeyRequestID = "request_id"
	KeySession   = "session"
	KeyRange     = "range"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
)

// Status values. instrumentation has its own copy because it imports this
// package.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(Operation(operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(Tool(tool))
}

// WithProvider returns a logger with the calendar provider attribute set.
func WithProvider(logger *slog.Logger, provider string) *slog.Logger {
	return logger.With(Provider(provider))
}

// WithRequestID tags logger with the inbound request id. An empty id
// returns logger unchanged.
func WithRequestID(logger *slog.Logger, id string) *slog.Logger {
	if id == "" {
		return logger
	}
	return logger.With(slog.String(KeyRequestID, id))
}

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

func Provider(name string) slog.Attr { return slog.String(KeyProvider, name) }

// Phase is a category suggestion phase, initial or refinement.
func Phase(phase string) slog.Attr { return slog.String(KeyPhase, phase) }

func Model(model string) slog.Attr { return slog.String(KeyModel, model) }

func Tool(tool string) slog.Attr { return slog.String(KeyTool, tool) }

func Status(status string) slog.Attr { return slog.String(KeyStatus, status) }

// Session identifies a session by the fingerprint of its access token.
// The token itself is never logged.
func Session(token string) slog.Attr {
	return slog.String(KeySession, Fingerprint(token))
}

// Range groups the bounds of an appointment query as RFC 3339 strings.
func Range(start, end time.Time) slog.Attr {
	return slog.Group(KeyRange,
		slog.String("start", start.Format(time.RFC3339)),
		slog.String("end", end.Format(time.RFC3339)),
	)
}

// Err returns an error attribute. A nil error yields an empty group, which
// handlers drop, so Err(maybeNil) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// Fingerprint returns a short stable identifier for a token, used to key
// caches and correlate log lines without keeping the token.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:8])
}
