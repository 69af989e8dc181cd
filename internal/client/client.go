package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/observability"
)

// DefaultAPIURL is the Weatherstack current-conditions endpoint. The free plan is HTTP only.
const DefaultAPIURL = "http://api.weatherstack.com/current"

// ProviderName is shown in the status line next to the retrieval time.
const ProviderName = "Weatherstack"

// RawResponse is a provider body that passed the envelope check and awaits Parse.
type RawResponse []byte

// WeatherFetcher issues one current-conditions request per call.
type WeatherFetcher interface {
	Fetch(ctx context.Context, city string) (RawResponse, error)
}

// WeatherstackClient talks to the Weatherstack "current" endpoint.
type WeatherstackClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewWeatherstackClient returns a client for apiURL. An empty apiKey is accepted here and
// reported as a ConfigError by each Fetch, so a missing key never stops the program.
// timeout of 0 leaves the transport default in place.
func NewWeatherstackClient(apiKey, apiURL string, timeout time.Duration) (*WeatherstackClient, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", apiURL)
	}

	return &WeatherstackClient{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type envelope struct {
	Success *bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
}

// Fetch performs a single GET for city. It never retries.
func (c *WeatherstackClient) Fetch(ctx context.Context, city string) (RawResponse, error) {
	if c.apiKey == "" {
		return nil, &ConfigError{Err: ErrMissingAPIKey}
	}

	start := time.Now()
	req, err := c.buildRequest(ctx, city)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return nil, &TransportError{Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		err = redactKey(err)
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &TransportError{Err: fmt.Errorf("request timeout: %w", err)}
		}
		return nil, &TransportError{Err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, &TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	envErr := checkEnvelope(resp.StatusCode, body)
	status := statusLabel(resp.StatusCode)
	if envErr != nil && status == "success" {
		status = "provider_error"
	}
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if envErr != nil {
		return nil, envErr
	}
	return RawResponse(body), nil
}

func (c *WeatherstackClient) buildRequest(ctx context.Context, city string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := baseURL.Query()
	params.Set("access_key", c.apiKey)
	params.Set("query", city)
	params.Set("units", "f")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// checkEnvelope detects application-level failures. Weatherstack answers 200 with
// success=false, so the body is inspected before the status code.
func checkEnvelope(statusCode int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if statusCode < 200 || statusCode >= 300 {
			return &ProviderError{StatusCode: statusCode, Info: fmt.Sprintf("HTTP %d", statusCode)}
		}
		return &SchemaError{Key: "response", Path: "response", Err: fmt.Errorf("parse response: %w", err)}
	}

	if env.Success != nil && !*env.Success {
		pe := &ProviderError{StatusCode: statusCode}
		if env.Error != nil {
			pe.Code = env.Error.Code
			pe.Type = env.Error.Type
			pe.Info = env.Error.Info
		}
		if pe.Info == "" {
			pe.Info = "request failed"
		}
		return pe
	}

	if statusCode < 200 || statusCode >= 300 {
		return &ProviderError{StatusCode: statusCode, Info: fmt.Sprintf("HTTP %d", statusCode)}
	}
	return nil
}

// redactKey masks the access key in the request URL that net/http embeds in *url.Error,
// so transport errors can be shown and logged.
func redactKey(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, parseErr := url.Parse(ue.URL)
	if parseErr != nil {
		return ue.Err
	}
	q := u.Query()
	if q.Has("access_key") {
		q.Set("access_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
