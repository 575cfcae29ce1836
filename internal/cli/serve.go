package cli

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"modkit/internal/server"
)

var (
	serveDir  string
	serveAddr string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local dev registry",
	Long: `Serve a registry.json and its payload files from a local directory over
HTTP, for testing a registry before publishing it. Point registry_url at
http://<addr>/registry.json to use it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveDir, "dir", ".", "directory holding registry.json and payload files")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8572", "listen address")
}

func runServe() error {
	r := mux.NewRouter()
	server.New(serveDir, nil).RegisterRoutes(r)

	fmt.Printf("🌐 Serving %s on http://%s/registry.json\n", serveDir, serveAddr)
	return http.ListenAndServe(serveAddr, r)
}
