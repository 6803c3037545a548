package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/frontage-cli/internal/model"
	"github.com/sells-group/frontage-cli/internal/report"
	"github.com/sells-group/frontage-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored analysis reports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
			runs, err := st.ListRuns(r.Context(), store.RunFilter{Limit: 50})
			if err != nil {
				http.Error(w, `{"error":"list runs failed"}`, http.StatusInternalServerError)
				return
			}
			if runs == nil {
				runs = []model.Run{}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(runs)
		})

		mux.HandleFunc("GET /report", func(w http.ResponseWriter, r *http.Request) {
			run, err := resolveRun(r, st)
			if err != nil {
				http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
				return
			}

			results, err := st.GetResults(r.Context(), run.ID)
			if err != nil {
				http.Error(w, `{"error":"load results failed"}`, http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition",
				fmt.Sprintf(`attachment; filename="facing_report_%s.csv"`, truncateID(run.ID)))
			if err := report.WriteCSV(w, results); err != nil {
				zap.L().Error("write report", zap.String("run_id", run.ID), zap.Error(err))
			}
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// resolveRun picks the run named by the run_id query parameter, or the most
// recent run when the parameter is absent.
func resolveRun(r *http.Request, st store.Store) (*model.Run, error) {
	if id := r.URL.Query().Get("run_id"); id != "" {
		return st.GetRun(r.Context(), id)
	}
	return st.LatestRun(r.Context())
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
