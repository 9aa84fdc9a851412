package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AnatoleLucet/sig/v2/instrument"
)

// maxWorkloadBytes bounds the body of POST /run.
const maxWorkloadBytes = 1 << 20

func serveCmd(logger func() (*slog.Logger, error)) *cobra.Command {
	var (
		addr  string
		file  string
		every time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics while running workloads",
		Long: `Serve Prometheus metrics on /metrics and a health check on /healthz.
Workloads posted to /run are executed and their result returned as YAML.
With --file, the workload also runs every --every.`,
		Example: `  sigbench serve --addr :9090
  sigbench serve --addr :9090 -f chains.yaml --every 5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger()
			if err != nil {
				return err
			}

			var w *Workload
			if file != "" {
				if w, err = LoadWorkload(file); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, addr, w, every, log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "Listen address")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Workload to run periodically")
	cmd.Flags().DurationVar(&every, "every", 10*time.Second, "Interval between periodic runs")

	return cmd
}

// server runs workloads one at a time, reporting them to shared observers.
type server struct {
	logger  *slog.Logger
	metrics *instrument.Metrics
	tracing *instrument.Tracing
	reg     *prometheus.Registry

	// runtimes are per goroutine, runs are serialized to keep the metrics
	// readable
	mu sync.Mutex
}

func newServer(logger *slog.Logger) *server {
	reg := prometheus.NewRegistry()

	return &server{
		logger:  logger,
		metrics: instrument.NewMetrics(instrument.WithRegistry(reg)),
		tracing: instrument.NewTracing(),
		reg:     reg,
	}
}

func (s *server) run(w *Workload) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Run(w, s.logger, s.metrics, s.tracing)
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{Registry: s.reg}))

	r.Post("/run", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWorkloadBytes))
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}

		workload, err := ParseWorkload(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := s.run(workload)
		if err != nil {
			s.logger.Error("sigbench: workload failed", "name", workload.Name, "error", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		out, err := yaml.Marshal(res)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(out)
	})

	return r
}

// periodic runs w every interval until ctx is done.
func (s *server) periodic(ctx context.Context, w *Workload, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		res, err := s.run(w)
		if err != nil {
			s.logger.Error("sigbench: workload failed", "name", w.Name, "error", err)
		} else {
			s.logger.Info("sigbench: workload done", "name", res.Name, "duration", res.Duration, "flushes", res.Flushes)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func serve(ctx context.Context, addr string, w *Workload, every time.Duration, logger *slog.Logger) error {
	s := newServer(logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if w != nil {
		go s.periodic(ctx, w, every)
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("sigbench: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("sigbench: serve: %w", err)
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("sigbench: shutting down")
	return srv.Shutdown(shutdown)
}
