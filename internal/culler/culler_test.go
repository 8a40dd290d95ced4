package culler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"

	"github.com/nikbrunner/linkshelf/internal/model"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/nohead", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func link(id, url string) model.Link {
	return model.Link{ID: id, Title: id, URL: url, CollectionID: model.RecentCollectionID}
}

func TestCheckLinks_Statuses(t *testing.T) {
	srv := newServer(t)
	links := []model.Link{
		link("ok", srv.URL+"/ok"),
		link("missing", srv.URL+"/missing"),
		link("gone", srv.URL+"/gone"),
		link("broken", srv.URL+"/broken"),
		link("nohead", srv.URL+"/nohead"),
	}

	results := CheckLinks(context.Background(), links, Options{
		Concurrency: 2,
		HTTPClient:  srv.Client(),
		Logger:      zerolog.Nop(),
	})

	assert.Equal(t, len(results), len(links))
	want := []Status{Healthy, Dead, Dead, Unreachable, Healthy}
	for i, r := range results {
		assert.Equal(t, r.Link.ID, links[i].ID)
		assert.Equal(t, r.Status, want[i], "link %s", r.Link.ID)
	}
	assert.Equal(t, results[3].Error, "Internal Server Error")
	assert.Equal(t, len(FilterDead(results)), 2)
}

func TestCheckLinks_ExcludedDomain(t *testing.T) {
	srv := newServer(t)
	links := []model.Link{link("private", srv.URL+"/missing")}

	results := CheckLinks(context.Background(), links, Options{
		HTTPClient:     srv.Client(),
		ExcludeDomains: []string{"127.0.0.1"},
		Logger:         zerolog.Nop(),
	})

	assert.Equal(t, results[0].Status, Unreachable)
	assert.Equal(t, results[0].Error, "Possibly private (auth required)")
}

func TestCheckLinks_Progress(t *testing.T) {
	srv := newServer(t)
	links := []model.Link{link("a", srv.URL+"/ok"), link("b", srv.URL+"/ok"), link("c", srv.URL+"/ok")}

	var calls atomic.Int32
	var last atomic.Int32
	CheckLinks(context.Background(), links, Options{
		HTTPClient:     srv.Client(),
		RequestsPerSec: 100,
		Logger:         zerolog.Nop(),
		OnProgress: func(completed, total int) {
			calls.Add(1)
			last.Store(int32(completed))
			assert.Equal(t, total, 3)
		},
	})

	assert.Equal(t, calls.Load(), int32(3))
	assert.Equal(t, last.Load(), int32(3))
}

func TestCheckLinks_Empty(t *testing.T) {
	assert.Assert(t, CheckLinks(context.Background(), nil, Options{}) == nil)
}

func TestCheckLinks_Cancelled(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := CheckLinks(ctx, []model.Link{link("a", srv.URL+"/ok")}, Options{
		HTTPClient: srv.Client(),
		Logger:     zerolog.Nop(),
	})

	assert.Equal(t, results[0].Status, Unreachable)
	assert.Equal(t, results[0].Error, "Cancelled")
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dial tcp: lookup nowhere.invalid: no such host", "DNS failure"},
		{"Get \"x\": context deadline exceeded", "Timeout"},
		{"dial tcp 127.0.0.1:1: connect: connection refused", "Connection refused"},
		{"x509: certificate signed by unknown authority", "TLS/certificate error"},
		{"something else", "something else"},
	}
	for _, tt := range tests {
		assert.Equal(t, normalizeError(tt.in), tt.want)
	}
}
