package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billvault/internal/models"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var page = "<html><body><table>" + strings.Repeat("<tr><td>bill</td></tr>", 20) + "</table></body></html>"

// proxyServer counts hits and answers with handler.
func proxyServer(t *testing.T, hits *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// deadProxy returns a proxy whose server is already closed, so requests fail
// at the network level.
func deadProxy(t *testing.T, name string) Proxy {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return Proxy{Name: name, Template: srv.URL + "/?u={url}"}
}

func TestFetch_FallsBackToThirdProxy(t *testing.T) {
	var third, fourth, fifth int32
	srv3 := proxyServer(t, &third, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://portal.example/bill?id=42", r.URL.Query().Get("u"))
		_, _ = io.WriteString(w, page)
	})
	srv4 := proxyServer(t, &fourth, func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, page) })
	srv5 := proxyServer(t, &fifth, func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, page) })

	f := NewWithProxies([]Proxy{
		deadProxy(t, "one"),
		deadProxy(t, "two"),
		{Name: "three", Template: srv3.URL + "/?u={url}"},
		{Name: "four", Template: srv4.URL + "/?u={url}"},
		{Name: "five", Template: srv5.URL + "/?u={url}"},
	}, newTestLogger())

	body, err := f.Fetch(context.Background(), "https://portal.example/bill?id=42")
	require.NoError(t, err)
	assert.Equal(t, page, body)
	assert.EqualValues(t, 1, atomic.LoadInt32(&third))
	assert.EqualValues(t, 0, atomic.LoadInt32(&fourth))
	assert.EqualValues(t, 0, atomic.LoadInt32(&fifth))
}

func TestFetch_UnwrapsEnvelope(t *testing.T) {
	var hits int32
	srv := proxyServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"contents": page, "status": map[string]int{"http_code": 200}})
	})

	f := NewWithProxies([]Proxy{{Name: "wrapped", Template: srv.URL + "/get?url={url}", Envelope: true}}, newTestLogger())

	body, err := f.Fetch(context.Background(), "https://portal.example")
	require.NoError(t, err)
	assert.Equal(t, page, body)
}

func TestFetch_RejectsShortAndErrorResponses(t *testing.T) {
	var short, status, badEnvelope, good int32
	srvShort := proxyServer(t, &short, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>redirecting</html>")
	})
	srvStatus := proxyServer(t, &status, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, page)
	})
	srvEnvelope := proxyServer(t, &badEnvelope, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, page)
	})
	srvGood := proxyServer(t, &good, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, page+"ok")
	})

	f := NewWithProxies([]Proxy{
		{Name: "short", Template: srvShort.URL + "/?u={url}"},
		{Name: "status", Template: srvStatus.URL + "/?u={url}"},
		{Name: "envelope", Template: srvEnvelope.URL + "/?u={url}", Envelope: true},
		{Name: "good", Template: srvGood.URL + "/?u={url}"},
	}, newTestLogger())

	body, err := f.Fetch(context.Background(), "https://portal.example")
	require.NoError(t, err)
	assert.Equal(t, page+"ok", body)
	for _, n := range []*int32{&short, &status, &badEnvelope, &good} {
		assert.EqualValues(t, 1, atomic.LoadInt32(n))
	}
}

func TestFetch_AllProxiesFail(t *testing.T) {
	f := NewWithProxies([]Proxy{deadProxy(t, "a"), deadProxy(t, "b")}, newTestLogger())

	_, err := f.Fetch(context.Background(), "https://portal.example")
	require.ErrorIs(t, err, models.ErrPortalUnreachable)
	assert.NotContains(t, err.Error(), "connection refused", "individual proxy failures are not surfaced")
}

func TestFetch_ContextCanceled(t *testing.T) {
	var hits int32
	srv := proxyServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, page) })
	f := NewWithProxies([]Proxy{{Name: "a", Template: srv.URL + "/?u={url}"}}, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "https://portal.example")
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))
}

func TestParseProxies(t *testing.T) {
	got := ParseProxies([]string{
		"a|https://a.example/get?url={url}|envelope",
		" b|https://b.example/{url} ",
		"broken",
		"",
	})
	require.Len(t, got, 2)
	assert.Equal(t, Proxy{Name: "a", Template: "https://a.example/get?url={url}", Envelope: true}, got[0])
	assert.Equal(t, Proxy{Name: "b", Template: "https://b.example/{url}"}, got[1])
}

func TestProxyRequestURL(t *testing.T) {
	p := Proxy{Template: "https://relay.example/raw?url={url}"}
	assert.Equal(t, "https://relay.example/raw?url=https%3A%2F%2Fportal.example%2Fx%3Fa%3D1%26b%3D2",
		p.RequestURL("https://portal.example/x?a=1&b=2"))
}
