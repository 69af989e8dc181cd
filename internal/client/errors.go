package client

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is wrapped by ConfigError when no credential is configured.
var ErrMissingAPIKey = errors.New("weather API key not configured")

// ErrorKind classifies lookup failures for presentation and metrics.
type ErrorKind string

const (
	KindConfig    ErrorKind = "config"
	KindTransport ErrorKind = "transport"
	KindProvider  ErrorKind = "provider"
	KindSchema    ErrorKind = "schema"
	KindUnknown   ErrorKind = "unknown"
)

// ConfigError reports a lookup that could not start because configuration is incomplete.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError reports a network failure talking to the provider.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ProviderError is an envelope failure: the provider answered, but with success=false
// or a non-2xx status.
type ProviderError struct {
	StatusCode int
	Code       int
	Type       string
	Info       string
}

func (e *ProviderError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("provider: %s (%s)", e.Info, e.Type)
	}
	return "provider: " + e.Info
}

// SchemaError reports a response that is missing an expected field or carries one
// of the wrong type. Key is the leaf key, Path the dotted location.
type SchemaError struct {
	Key  string
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema: unexpected data format at %q", e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind of err, or KindUnknown when err is not one of the typed errors.
func KindOf(err error) ErrorKind {
	var (
		configErr    *ConfigError
		transportErr *TransportError
		providerErr  *ProviderError
		schemaErr    *SchemaError
	)
	switch {
	case errors.As(err, &configErr):
		return KindConfig
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &providerErr):
		return KindProvider
	case errors.As(err, &schemaErr):
		return KindSchema
	}
	return KindUnknown
}
