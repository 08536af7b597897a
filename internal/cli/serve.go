package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

// newServeCmd creates the serve command: expose the results/ artifacts
// over HTTP so dashboards and agents can fetch them.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [project]",
		Short: "Serve result artifacts over HTTP",
		Long: `Serve exposes the project's results/ artifacts over HTTP:

  GET /world        world snapshot (JSON)
  GET /diagnostics  validation and analysis findings (JSON)
  GET /diff         latest baseline diff (JSON)
  GET /render.png   rendered frame (PNG)
  GET /healthz      liveness probe

Artifacts are read from disk per request, so a concurrent ludock run
updates what the server returns.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			projectRoot := "."
			if len(args) == 1 {
				projectRoot = args[0]
			}

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Recoverer)

			r.Get("/world", serveArtifact(projectRoot, worldArtifact, "application/json"))
			r.Get("/diagnostics", serveArtifact(projectRoot, diagnosticsArtifact, "application/json"))
			r.Get("/diff", serveArtifact(projectRoot, diffArtifact, "application/json"))
			r.Get("/render.png", serveArtifact(projectRoot, renderArtifact, "image/png"))
			r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})

			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving artifacts", "addr", addr, "project", projectRoot)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
				return nil
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8373", "listen address")
	return cmd
}

// serveArtifact returns a handler reading one artifact from disk. Missing
// artifacts are 404s, not errors: the run that produces them may not have
// happened yet.
func serveArtifact(projectRoot, name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		data, err := os.ReadFile(artifactPath(projectRoot, name))
		if err != nil {
			if os.IsNotExist(err) {
				http.Error(w, "artifact not produced yet, run `ludock run` first", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}
