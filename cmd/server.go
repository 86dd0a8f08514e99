package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/radiosim/radiosim/internal/observability"
	"github.com/radiosim/radiosim/sim"
	"github.com/radiosim/radiosim/sim/trace"
)

// newMetricsRouter serves the Prometheus registry and the end-of-run
// report of a finished simulation.
func newMetricsRouter(collector *observability.MediumCollector, metrics *sim.Metrics, summary *trace.TraceSummary) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/summary", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"metrics":        metrics,
			"delivery_ratio": metrics.DeliveryRatio(),
			"trace":          summary,
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/radios/{id:[0-9]+}", func(w http.ResponseWriter, req *http.Request) {
		var id int
		if _, err := fmt.Sscanf(mux.Vars(req)["id"], "%d", &id); err != nil {
			http.Error(w, "bad radio id", http.StatusBadRequest)
			return
		}
		rm, ok := metrics.PerRadio[sim.RadioID(id)]
		if !ok {
			http.Error(w, "radio not found", http.StatusNotFound)
			return
		}
		writeJSON(w, rm)
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	}).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// serveMetrics blocks until ctx is cancelled, then shuts the server down.
func serveMetrics(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// printTraceSummary prints the decision-trace statistics.
func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Traced Transmissions : %d from %d sources\n", s.Transmissions, s.UniqueSources)
	fmt.Fprintf(w, "Destinations / tx    : mean %.2f, stddev %.2f, p95 %.0f\n",
		s.MeanDestinations, s.StdDevDestinations, s.P95Destinations)
	fmt.Fprintf(w, "Interfered / tx      : mean %.2f\n", s.MeanInterfered)
	fmt.Fprintf(w, "Traced Delivery Ratio: %.4f (%d delivered, %d lost)\n", s.DeliveryRatio, s.Delivered, s.Lost)
	outcomes := make([]string, 0, len(s.OutcomeCounts))
	for o := range s.OutcomeCounts {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "Capture %-13s: %d\n", o, s.OutcomeCounts[o])
	}
}
