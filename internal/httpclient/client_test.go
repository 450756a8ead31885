package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New(Options{})

	assert.Equal(t, DefaultTimeout, c.http.Timeout)
	assert.Equal(t, DefaultMaxRedirects, c.maxRedirects)
	assert.Nil(t, c.limiter)
	assert.False(t, c.allowPrivate)
}

func TestValidateURL(t *testing.T) {
	strict := New(Options{})
	lenient := New(Options{AllowPrivate: true})

	tests := []struct {
		name        string
		url         string
		strictErr   string // empty: allowed
		lenientErr  string
	}{
		{name: "public https", url: "https://query.wikidata.org/sparql"},
		{name: "public http", url: "http://example.com/sparql"},
		{name: "file scheme", url: "file:///etc/passwd", strictErr: "scheme", lenientErr: "scheme"},
		{name: "credentials", url: "http://user:pw@example.com/", strictErr: "credentials", lenientErr: "credentials"},
		{name: "missing host", url: "http:///sparql", strictErr: "hostname", lenientErr: "hostname"},
		{name: "localhost", url: "http://localhost:9999/blazegraph/sparql", strictErr: "localhost"},
		{name: "loopback ip", url: "http://127.0.0.1:9999/sparql", strictErr: "private"},
		{name: "private ipv4", url: "http://192.168.1.10/sparql", strictErr: "private"},
		{name: "ipv6 unique local", url: "http://[fd00::1]/sparql", strictErr: "private"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := strict.ValidateURL(tt.url)
			if tt.strictErr == "" {
				assert.NoError(t, err)
			} else if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.strictErr)
			}

			_, err = lenient.ValidateURL(tt.url)
			if tt.lenientErr == "" {
				assert.NoError(t, err)
			} else if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.lenientErr)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"10.1.2.3", "172.16.0.1", "192.168.0.1", "127.0.0.1", "169.254.1.1", "::1", "fe80::1", "fd12::1", "2001:db8::1", "::ffff:10.0.0.1"}
	public := []string{"8.8.8.8", "1.1.1.1", "2606:4700:4700::1111"}

	for _, s := range private {
		assert.True(t, isPrivateIP(net.ParseIP(s)), s)
	}
	for _, s := range public {
		assert.False(t, isPrivateIP(net.ParseIP(s)), s)
	}
}

func TestDoAgainstLocalServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	t.Run("blocked by default", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		_, err = New(Options{}).Do(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "request blocked")
	})

	t.Run("allowed when private hosts are permitted", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := New(Options{AllowPrivate: true}).Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestRedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/again", http.StatusFound)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = New(Options{AllowPrivate: true, MaxRedirects: 2}).Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()
	c := New(Options{AllowPrivate: true, RequestsPerSecond: 0.5})

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err, "first request uses the burst")
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}
