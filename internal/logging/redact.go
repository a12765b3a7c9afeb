package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Redacted replaces the value of any sensitive field.
const Redacted = "***REDACTED***"

// Keys containing one of these fragments are treated as credentials.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"bearer",
	"credential",
}

// IsSensitiveKey reports whether a field key names credential material.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// redactingCore rewrites sensitive fields before they reach the wrapped core.
// Values are replaced entirely; no prefix or suffix of a secret survives.
type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore wraps c so that sensitive fields are redacted.
func NewRedactingCore(c zapcore.Core) zapcore.Core {
	return &redactingCore{Core: c}
}

func (r *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: r.Core.With(redactFields(fields))}
}

func (r *redactingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if r.Enabled(e.Level) {
		return ce.AddCore(e, r)
	}
	return ce
}

func (r *redactingCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return r.Core.Write(e, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		if !IsSensitiveKey(f.Key) || f.Type == zapcore.SkipType {
			continue
		}
		if out == nil {
			out = make([]zapcore.Field, len(fields))
			copy(out, fields)
		}
		out[i] = zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: Redacted}
	}
	if out == nil {
		return fields
	}
	return out
}
