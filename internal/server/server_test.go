package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	dir := t.TempDir()
	r := mux.NewRouter()
	New(dir, nil).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, dir
}

func TestServeRegistryDocument(t *testing.T) {
	srv, dir := newTestServer(t)

	doc := `{"schemaVersion": 1, "mods": []}`
	if err := os.WriteFile(filepath.Join(dir, "registry.json"), []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	resp, err := http.Get(srv.URL + "/registry.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestServeMissingRegistry(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/registry.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServeBlob(t *testing.T) {
	srv, dir := newTestServer(t)

	if err := os.WriteFile(filepath.Join(dir, "Foo.dll"), []byte("dll-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	resp, err := http.Get(srv.URL + "/blobs/Foo.dll")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/blobs/missing.dll")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing blob status = %d, want 404", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
