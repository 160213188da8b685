package geocode

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// redirectingClient sends requests addressed to the host of upstreamBase to
// the test server instead, keeping path and query. Other hosts pass through.
func redirectingClient(t *testing.T, serverURL, upstreamBase string) *http.Client {
	t.Helper()
	server, err := url.Parse(serverURL)
	require.NoError(t, err)
	upstream, err := url.Parse(upstreamBase)
	require.NoError(t, err)

	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host != upstream.Host {
			return http.DefaultTransport.RoundTrip(req)
		}
		out := req.Clone(req.Context())
		out.URL.Scheme = server.Scheme
		out.URL.Host = server.Host
		out.Host = server.Host
		return http.DefaultTransport.RoundTrip(out)
	})}
}
