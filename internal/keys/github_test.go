package keys

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boxfleet/boxfleet/internal/model"
)

func newTestFetcher(handler http.HandlerFunc) (*GitHubFetcher, func()) {
	srv := httptest.NewServer(handler)
	return &GitHubFetcher{BaseURL: srv.URL, Client: srv.Client()}, srv.Close
}

func TestPublicKeyFirstLine(t *testing.T) {
	f, done := newTestFetcher(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/alice.keys" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte("ssh-ed25519 AAAAfirst\nssh-rsa AAAAsecond\n"))
	})
	defer done()

	key, err := f.PublicKey(context.Background(), "alice")
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	if key != "ssh-ed25519 AAAAfirst" {
		t.Fatalf("PublicKey() = %q", key)
	}
}

func TestPublicKeySkipsBlankLines(t *testing.T) {
	f, done := newTestFetcher(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n\nssh-rsa AAAAonly\n"))
	})
	defer done()

	key, err := f.PublicKey(context.Background(), "alice")
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	if key != "ssh-rsa AAAAonly" {
		t.Fatalf("PublicKey() = %q", key)
	}
}

func TestPublicKeyNoKeys(t *testing.T) {
	f, done := newTestFetcher(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n"))
	})
	defer done()

	_, err := f.PublicKey(context.Background(), "alice")
	if !model.IsInvalid(err) {
		t.Fatalf("PublicKey() error = %v, want invalid request", err)
	}
}

func TestPublicKeyUnknownUser(t *testing.T) {
	f, done := newTestFetcher(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	defer done()

	_, err := f.PublicKey(context.Background(), "ghost")
	if !model.IsInvalid(err) {
		t.Fatalf("PublicKey() error = %v, want invalid request", err)
	}
}
