// Package utils holds small shared helpers.
package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true, uses development
// config (human-readable, debug level); otherwise production config
// (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// ComponentLogger returns a child logger named for a server component.
func ComponentLogger(base *zap.Logger, component string) *zap.Logger {
	return base.Named(component)
}
