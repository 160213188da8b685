package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// NewHTTPClient returns the client shared by the service clients.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Get issues a GET request and returns the body of a 2xx response. Any other
// status is returned as an *Error; there is no retry.
func Get(ctx context.Context, hc *http.Client, service, reqURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build request", service)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	zap.L().Debug("upstream request", zap.String("service", service), zap.String("url", reqURL))

	resp, err := hc.Do(req)
	if err != nil {
		return nil, NewTransportError(service, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(service, eris.Wrap(err, "read body"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewStatusError(service, resp.StatusCode, body)
	}
	return body, nil
}

// GetJSON is Get followed by decoding the body into out.
func GetJSON(ctx context.Context, hc *http.Client, service, reqURL string, header http.Header, out any) error {
	body, err := Get(ctx, hc, service, reqURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "%s: parse response", service)
	}
	return nil
}
