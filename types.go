package campus

import (
	"fmt"
	"strings"
	"time"
)

// Logger is the logging contract used across the package.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config exposes the settings the core needs. The config package provides
// the default implementation.
type Config interface {
	GetSigningKey() string
	GetTokenTTL() time.Duration
	GetTokenLeeway() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetAutoActivateSignups() bool
	GetRequireActiveAccount() bool
	GetBcryptCost() int
	GetMaxLoginAttempts() int
	GetLockoutPeriod() time.Duration
	GetDefaultPhoneRegion() string
}

// Page holds skip/limit pagination arguments.
type Page struct {
	Skip  int
	Limit int
}

const (
	// DefaultPageLimit is used when a request does not set a limit
	DefaultPageLimit = 100
	// MaxPageLimit caps the number of rows a list call can return
	MaxPageLimit = 500
)

// Normalize clamps the page to sane values.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] CAMPUS " + formatLogLine(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] CAMPUS " + formatLogLine(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] CAMPUS " + formatLogLine(msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] CAMPUS " + formatLogLine(msg, args...))
}

func formatLogLine(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	b.WriteString("\n")
	return b.String()
}

// DefaultLogger returns the package logger used when none is configured.
func DefaultLogger() Logger {
	return defLogger{}
}

func resolveLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
