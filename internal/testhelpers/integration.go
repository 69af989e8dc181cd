//go:build integration
// +build integration

// Package testhelpers holds shared setup for tests that call the live Weatherstack API.
package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/client"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey  string
	APIURL  string
	Timeout time.Duration
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}
	return IntegrationTestConfig{
		APIKey:  apiKey,
		APIURL:  os.Getenv("WEATHER_API_URL"),
		Timeout: 10 * time.Second,
	}
}

// NewIntegrationClient returns a live Weatherstack client for cfg.
func NewIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.WeatherstackClient {
	t.Helper()
	c, err := client.NewWeatherstackClient(cfg.APIKey, cfg.APIURL, cfg.Timeout)
	if err != nil {
		t.Fatalf("NewWeatherstackClient() error = %v", err)
	}
	return c
}
