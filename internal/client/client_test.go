package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/observability"
)

const sampleBody = `{
	"request": {"type": "City", "query": "Pittsburgh, United States of America", "unit": "f"},
	"location": {"name": "Pittsburgh", "country": "United States of America", "region": "Pennsylvania"},
	"current": {
		"temperature": 54,
		"feelslike": 51,
		"weather_descriptions": ["Partly cloudy"],
		"humidity": 62,
		"wind_speed": 9
	}
}`

func TestNewWeatherstackClient(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		apiURL  string
		wantErr bool
	}{
		{"default URL", "key", "", false},
		{"empty key is accepted", "", "http://example.test/current", false},
		{"bad scheme", "key", "ftp://example.test/current", true},
		{"unparseable", "key", "http://[::1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWeatherstackClient(tt.apiKey, tt.apiURL, 0)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewWeatherstackClient() expected error, got nil")
				}
				if c != nil {
					t.Errorf("NewWeatherstackClient() expected nil client on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWeatherstackClient() unexpected error: %v", err)
			}
			if tt.apiURL == "" && c.apiURL != DefaultAPIURL {
				t.Errorf("apiURL = %q, want %q", c.apiURL, DefaultAPIURL)
			}
		})
	}
}

func TestWeatherstackClient_Fetch_Success(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		q := r.URL.Query()
		if q.Get("access_key") != "test-key" {
			t.Errorf("access_key = %q, want test-key", q.Get("access_key"))
		}
		if q.Get("query") != "New York" {
			t.Errorf("query = %q, want %q", q.Get("query"), "New York")
		}
		if q.Get("units") != "f" {
			t.Errorf("units = %q, want f", q.Get("units"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	c, err := NewWeatherstackClient("test-key", server.URL+"/current", 2*time.Second)
	if err != nil {
		t.Fatalf("NewWeatherstackClient() error = %v", err)
	}

	raw, err := c.Fetch(context.Background(), "New York")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 request, got %d", calls.Load())
	}
	if !strings.Contains(string(raw), `"Pittsburgh"`) {
		t.Errorf("raw body not returned: %s", raw)
	}
}

func TestWeatherstackClient_Fetch_MissingKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c, err := NewWeatherstackClient("", server.URL, 0)
	if err != nil {
		t.Fatalf("NewWeatherstackClient() error = %v", err)
	}
	_, err = c.Fetch(context.Background(), "Pittsburgh")
	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("Fetch() error = %v, want *ConfigError", err)
	}
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Fetch() error = %v, want ErrMissingAPIKey", err)
	}
	if calls.Load() != 0 {
		t.Errorf("no request expected without a key, got %d", calls.Load())
	}
}

func TestWeatherstackClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantText string
	}{
		{
			name:     "envelope failure",
			status:   http.StatusOK,
			body:     `{"success": false, "error": {"code": 615, "type": "request_failed", "info": "invalid city"}}`,
			wantKind: KindProvider,
			wantText: "invalid city",
		},
		{
			name:     "envelope failure without info",
			status:   http.StatusOK,
			body:     `{"success": false}`,
			wantKind: KindProvider,
			wantText: "request failed",
		},
		{
			name:     "non-2xx without envelope",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			wantKind: KindProvider,
			wantText: "HTTP 502",
		},
		{
			name:     "non-2xx with JSON body",
			status:   http.StatusServiceUnavailable,
			body:     `{}`,
			wantKind: KindProvider,
			wantText: "HTTP 503",
		},
		{
			name:     "not JSON",
			status:   http.StatusOK,
			body:     `not json`,
			wantKind: KindSchema,
			wantText: "response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := NewWeatherstackClient("test-key", server.URL, 2*time.Second)
			if err != nil {
				t.Fatalf("NewWeatherstackClient() error = %v", err)
			}
			_, err = c.Fetch(context.Background(), "somewhere")
			if err == nil {
				t.Fatalf("Fetch() expected error, got nil")
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(%v) = %v, want %v", err, got, tt.wantKind)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestWeatherstackClient_Fetch_ProviderErrorFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": {"code": 101, "type": "invalid_access_key", "info": "You have not supplied a valid API Access Key."}}`))
	}))
	defer server.Close()

	c, _ := NewWeatherstackClient("bad-key", server.URL, 0)
	_, err := c.Fetch(context.Background(), "Pittsburgh")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Fetch() error = %v, want *ProviderError", err)
	}
	if pe.Code != 101 || pe.Type != "invalid_access_key" {
		t.Errorf("ProviderError = %+v", pe)
	}
	if pe.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", pe.StatusCode)
	}
}

func TestWeatherstackClient_Fetch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, _ := NewWeatherstackClient("test-key", url, time.Second)
	_, err := c.Fetch(context.Background(), "Pittsburgh")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Fetch() error = %v, want *TransportError", err)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Errorf("transport error leaks the access key: %v", err)
	}
	if !strings.Contains(err.Error(), "REDACTED") {
		t.Errorf("transport error should keep a redacted URL: %v", err)
	}
}

type failingBodyTransport struct{}

func (failingBodyTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(io.MultiReader(strings.NewReader(`{"current":`), errorReader{})),
	}, nil
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

// errorDurationCount scrapes the observation count of the provider latency histogram
// for status "error".
func errorDurationCount(t *testing.T) int {
	t.Helper()
	w := httptest.NewRecorder()
	observability.MetricsHandler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	const prefix = `weatherApiDurationSeconds_count{status="error"} `
	scanner := bufio.NewScanner(w.Body)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, prefix) {
			n, err := strconv.Atoi(strings.TrimPrefix(line, prefix))
			if err != nil {
				t.Fatalf("parse %q: %v", line, err)
			}
			return n
		}
	}
	return 0
}

func TestWeatherstackClient_Fetch_BodyReadFailure(t *testing.T) {
	c, _ := NewWeatherstackClient("test-key", DefaultAPIURL, 0)
	c.client.Transport = failingBodyTransport{}
	before := errorDurationCount(t)

	_, err := c.Fetch(context.Background(), "Pittsburgh")

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Fetch() error = %v, want *TransportError", err)
	}
	if !strings.Contains(err.Error(), "read response body") {
		t.Errorf("error = %v, want read response body", err)
	}
	if got := errorDurationCount(t); got != before+1 {
		t.Errorf("error latency observations = %d, want %d", got, before+1)
	}
}

func TestWeatherstackClient_Fetch_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	c, _ := NewWeatherstackClient("test-key", server.URL, 2*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "Pittsburgh")
	if err == nil {
		t.Fatalf("Fetch() expected error, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
	if KindOf(err) != KindTransport {
		t.Errorf("KindOf() = %v, want transport", KindOf(err))
	}
}

func TestWeatherstackClient_buildRequest_KeepsExistingQuery(t *testing.T) {
	c, _ := NewWeatherstackClient("k", "http://example.test/current?language=en", 0)
	req, err := c.buildRequest(context.Background(), "São Paulo")
	if err != nil {
		t.Fatalf("buildRequest() error = %v", err)
	}
	q := req.URL.Query()
	if q.Get("language") != "en" {
		t.Errorf("existing query parameter dropped: %s", req.URL.RawQuery)
	}
	if q.Get("query") != "São Paulo" {
		t.Errorf("query = %q", q.Get("query"))
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "success"},
		{204, "success"},
		{404, "client_error"},
		{429, "client_error"},
		{500, "server_error"},
		{302, "error"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.code); got != tt.want {
			t.Errorf("statusLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
