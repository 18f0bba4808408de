package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/trainpi/internal/domain/motor"
	"github.com/oshokin/trainpi/internal/logger"
)

const (
	// namespace prefixes every metric name.
	namespace = "trainpi"
	// readHeaderTimeout bounds how long a scrape may take to send headers.
	readHeaderTimeout = 5 * time.Second
	// shutdownTimeout bounds the graceful stop of the HTTP server.
	shutdownTimeout = 3 * time.Second
)

// Collector keeps Prometheus metrics in sync with controller changes.
type Collector struct {
	// registry holds the collector's metrics.
	registry *prometheus.Registry

	// running is 1 while the motor runs.
	running prometheus.Gauge
	// speed is the current setpoint.
	speed prometheus.Gauge
	// elapsed is the stopwatch value at the last change.
	elapsed prometheus.Gauge
	// runs counts successful starts.
	runs prometheus.Counter
	// errors counts failed operations by kind.
	errors *prometheus.CounterVec

	// wasRunning is the run state seen by the previous Observe call.
	wasRunning bool
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "motor",
			Name:      "running",
			Help:      "1 while the motor is running, 0 otherwise.",
		}),
		speed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "motor",
			Name:      "speed",
			Help:      "Current speed setpoint in percent.",
		}),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "motor",
			Name:      "elapsed_seconds",
			Help:      "Stopwatch value at the last operator action.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "motor",
			Name:      "runs_total",
			Help:      "Number of times the motor was started.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actuator",
			Name:      "errors_total",
			Help:      "Failed operator actions by kind.",
		}, []string{"kind"}),
	}

	c.registry.MustRegister(c.running, c.speed, c.elapsed, c.runs, c.errors)

	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one controller change. It has the motor.Listener signature
// and must be called from the controller's goroutine.
func (c *Collector) Observe(change motor.Change) {
	running := change.Running()

	if running {
		c.running.Set(1)
	} else {
		c.running.Set(0)
	}

	if running && !c.wasRunning {
		c.runs.Inc()
	}

	c.wasRunning = running

	c.speed.Set(float64(change.Speed))
	c.elapsed.Set(change.Elapsed.Seconds())

	if change.Err != nil {
		c.errors.WithLabelValues(errorKind(change.Err)).Inc()
	}
}

// Server exposes a collector's registry over HTTP.
type Server struct {
	// lis is the bound listener.
	lis net.Listener
	// srv serves /metrics on lis.
	srv *http.Server
}

// Listen binds address for the /metrics endpoint. Binding happens here so a
// busy port is reported before serving starts.
func (c *Collector) Listen(ctx context.Context, address string) (*Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	return &Server{
		lis: lis,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Serve publishes the registry at /metrics on address until ctx is done.
func (c *Collector) Serve(ctx context.Context, address string) error {
	s, err := c.Listen(ctx, address)
	if err != nil {
		return err
	}

	return s.Serve(ctx)
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

// Serve handles scrapes until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	logger.InfoKV(ctx, "Metrics server listening", "address", s.Addr().String())

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		//nolint:contextcheck // The parent context is already done at this point.
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorKV(ctx, "Metrics server shutdown failed", "error", err)
		}
	}()

	if err := s.srv.Serve(s.lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}

// Close releases a listener that was never served. It is safe on a nil Server.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}

	if err := s.lis.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close metrics listener: %w", err)
	}

	return nil
}

// errorKind classifies an operation error for the errors_total label.
func errorKind(err error) string {
	var cmdErr *motor.CommandError

	switch {
	case errors.Is(err, motor.ErrNoDevice):
		return "no_device"
	case errors.Is(err, motor.ErrNotConnected):
		return "not_connected"
	case errors.As(err, &cmdErr):
		return cmdErr.Command
	default:
		return "other"
	}
}
