package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const registryDoc = `{
	"schemaVersion": 1,
	"lastUpdated": "2026-08-01",
	"registryUrl": "https://example.com/registry.json",
	"categories": ["Gameplay", "UI"],
	"mods": [
		{
			"id": "Foo",
			"name": "Foo Mod",
			"category": "Gameplay",
			"repositoryUrl": "https://github.com/example/mods",
			"fileName": "Foo.dll",
			"enabled": true
		}
	]
}`

func TestFetchParsesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(registryDoc))
	}))
	defer srv.Close()

	reg, err := NewDocumentFetcher(srv.URL, nil).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(reg.Mods) != 1 || reg.Mods[0].ID != "Foo" {
		t.Fatalf("unexpected mods: %+v", reg.Mods)
	}
	if reg.Mods[0].FileName != "Foo.dll" {
		t.Errorf("FileName = %q, want Foo.dll", reg.Mods[0].FileName)
	}
	if len(reg.Categories) != 2 {
		t.Errorf("Categories = %v, want 2 entries", reg.Categories)
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(registryDoc))
	}))
	defer srv.Close()

	reg, err := NewDocumentFetcher(srv.URL, nil).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v after %d attempts", err, attempts)
	}
	if attempts != 3 {
		t.Errorf("server saw %d attempts, want 3", attempts)
	}
	if len(reg.Mods) != 1 {
		t.Errorf("expected parsed registry after retries, got %+v", reg)
	}
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewDocumentFetcher(srv.URL, nil).Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrUnavailable", err)
	}
	if attempts != fetchAttempts {
		t.Errorf("server saw %d attempts, want %d", attempts, fetchAttempts)
	}

	var engineErr *EngineError
	if !errors.As(err, &engineErr) || engineErr.Category() != CategoryTransient {
		t.Errorf("expected transient category, got %v", err)
	}
}

func TestFetchMalformedDocumentDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	reg, err := NewDocumentFetcher(srv.URL, nil).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() should degrade, not fail; got %v", err)
	}
	if len(reg.Mods) != 0 {
		t.Errorf("expected empty catalog for malformed document, got %+v", reg.Mods)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusGatewayTimeout, ErrUnavailable},
		{http.StatusNotFound, ErrAssetMissing},
		{http.StatusForbidden, ErrAssetMissing},
	}

	for _, tt := range tests {
		if got := ClassifyHTTPStatus(tt.status); !errors.Is(got, tt.want) {
			t.Errorf("ClassifyHTTPStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
