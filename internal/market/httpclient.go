package market

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"crypto-convert-bot/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d", e.Provider, e.Code)
}

func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		// Operators opt out of certificate checks explicitly through config.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure}, //nolint:gosec
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// getJSON performs one GET and decodes a 2xx body into out. Every call is
// recorded under provider/endpoint regardless of outcome.
func getJSON(ctx context.Context, client *http.Client, m *metrics.Metrics, provider, endpoint, u string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		m.ObserveUpstream(provider, endpoint, "error", time.Since(start))
		return fmt.Errorf("request %s: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		status := "http_error"
		if resp.StatusCode == http.StatusNotFound {
			status = "not_found"
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		m.ObserveUpstream(provider, endpoint, status, time.Since(start))
		return &StatusError{Provider: provider, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		m.ObserveUpstream(provider, endpoint, "decode_error", time.Since(start))
		return fmt.Errorf("decode %s: %w", provider, err)
	}
	m.ObserveUpstream(provider, endpoint, "ok", time.Since(start))
	return nil
}
