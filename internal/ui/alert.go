package ui

import (
	"errors"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/client"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/validation"
)

// Alert is a modal error notification. While one is open the loop ignores triggers.
type Alert struct {
	Kind    client.ErrorKind `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}

// AlertFor turns a lookup error into the notification shown to the user.
func AlertFor(err error) Alert {
	var (
		transportErr *client.TransportError
		providerErr  *client.ProviderError
		schemaErr    *client.SchemaError
	)
	switch {
	case errors.As(err, &schemaErr):
		return Alert{Kind: client.KindSchema, Title: "Data Error", Message: "Unexpected data format: " + schemaErr.Key}
	case errors.As(err, &providerErr):
		return Alert{Kind: client.KindProvider, Title: "API Error", Message: "Error: " + providerErr.Info}
	case errors.As(err, &transportErr):
		return Alert{Kind: client.KindTransport, Title: "Connection Error", Message: "Could not connect: " + transportErr.Err.Error()}
	case client.KindOf(err) == client.KindConfig:
		return Alert{Kind: client.KindConfig, Title: "Error", Message: "API Key not found. Set WEATHER_API_KEY in the environment or .env file."}
	case errors.Is(err, validation.ErrCityTooLong):
		return Alert{Kind: client.KindUnknown, Title: "Input Error", Message: "City name is too long."}
	}
	return Alert{Kind: client.KindUnknown, Title: "Error", Message: err.Error()}
}
