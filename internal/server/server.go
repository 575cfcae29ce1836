package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

// Server serves a registry document and payload blobs from a local
// directory. It exists for offline development and testing of the engine
// against a registry you control; it is not the hosting platform.
type Server struct {
	dir    string
	logger *log.Logger
}

// New creates a dev registry server over dir. The directory holds a
// registry.json plus the payload files it references.
func New(dir string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{dir: dir, logger: logger}
}

// RegisterRoutes sets up the dev registry routes.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/registry.json", s.handleRegistry).Methods("GET")
	r.HandleFunc("/blobs/{name}", s.handleBlob).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.dir, "registry.json"))
	if err != nil {
		http.Error(w, "registry document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	// The blob name is a bare payload file name, never a path.
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		http.Error(w, "invalid blob name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "blob not found", http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
