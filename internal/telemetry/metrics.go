package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transpipe/internal/logging"
	"transpipe/internal/pipeline"
	"transpipe/internal/stage"
)

// Recorder collects pipeline and resolver counters into its own registry.
type Recorder struct {
	reg           *prometheus.Registry
	steps         *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	diagnostics   *prometheus.CounterVec
	untransformed *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transpipe",
			Name:      "stage_invocations_total",
			Help:      "Transformer invocations by phase, kind and outcome.",
		}, []string{"phase", "kind", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "transpipe",
			Name:      "stage_duration_seconds",
			Help:      "Transformer invocation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"phase", "kind"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transpipe",
			Name:      "diagnostics_total",
			Help:      "Transformer diagnostics forwarded as warnings.",
		}, []string{"phase"}),
		untransformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transpipe",
			Name:      "untransformed_total",
			Help:      "Units no stage matched.",
		}, []string{"phase"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transpipe",
			Name:      "resolutions_total",
			Help:      "Import specifier resolutions by outcome.",
		}, []string{"outcome"}),
	}
	r.reg.MustRegister(r.steps, r.stepDuration, r.diagnostics, r.untransformed, r.resolutions)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) StepDone(phase pipeline.Phase, kind stage.Kind, took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.steps.WithLabelValues(string(phase), string(kind), outcome).Inc()
	r.stepDuration.WithLabelValues(string(phase), string(kind)).Observe(took.Seconds())
}

func (r *Recorder) Diagnostic(phase pipeline.Phase) {
	r.diagnostics.WithLabelValues(string(phase)).Inc()
}

func (r *Recorder) Untransformed(phase pipeline.Phase) {
	r.untransformed.WithLabelValues(string(phase)).Inc()
}

func (r *Recorder) Resolution(ok bool) {
	outcome := "resolved"
	if !ok {
		outcome = "unresolved"
	}
	r.resolutions.WithLabelValues(outcome).Inc()
}

// Expose serves the registry on /metrics until ctx is done.
func Expose(ctx context.Context, port int, reg prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Component("telemetry").Error("metrics server", "port", port, "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	return srv
}
