package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/logging"
	"github.com/born-ml/updater/internal/parallel"
	"github.com/born-ml/updater/internal/simd"
	"github.com/born-ml/updater/internal/trainloop"
	"github.com/born-ml/updater/internal/updater"
)

const defaultNumParam = 4096

type runParams struct {
	config      string
	updater     string
	steps       int
	workers     int
	numParam    int
	seed        int64
	logEvery    int
	checkpoint  string
	restore     string
	metricsAddr string
	logging     logging.Config
}

func runCmd() *cobra.Command {
	p := runParams{logging: logging.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Train the quadratic demo objective",
		Long: `Train the quadratic demo objective with the selected update rule.

Hyperparameters come from --config (YAML, JSON or TOML) and UPDATER_*
environment variables, e.g. UPDATER_LEARNING_RATE=0.05.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, p)
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.config, "config", "", "Path to a hyperparameter config file")
	f.StringVar(&p.updater, "updater", updater.KindNesterov.String(), "Update rule: sgd, adagrad, rmsprop, momentum, nesterov or ftrl")
	f.IntVar(&p.steps, "steps", 100, "Number of dense training steps")
	f.IntVar(&p.workers, "workers", parallel.DefaultConfig().NumWorkers, "Worker goroutines for batch updates (1 disables sharding)")
	f.IntVar(&p.numParam, "num-param", 0, "Model size when num_param is not set in config")
	f.Int64Var(&p.seed, "seed", 1, "Seed for the demo objective target")
	f.IntVar(&p.logEvery, "log-every", 10, "Log progress every N steps (0 disables)")
	f.StringVar(&p.checkpoint, "checkpoint", "", "Write the updater state to this file after training")
	f.StringVar(&p.restore, "restore", "", "Load updater state from this file before training")
	f.StringVar(&p.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	f.StringVar(&p.logging.Level, "log-level", p.logging.Level, "Log level")
	f.StringVar(&p.logging.Format, "log-format", p.logging.Format, "Log format: text or json")

	return cmd
}

func run(ctx context.Context, p runParams) error {
	if err := logging.Configure(p.logging); err != nil {
		return err
	}
	logger := log.WithField("component", "run")

	kind, err := updater.ParseKind(p.updater)
	if err != nil {
		return err
	}
	hp, err := hyper.Load(viper.New(), p.config)
	if err != nil {
		return err
	}
	if hp.NumParam == 0 {
		hp.NumParam = p.numParam
	}
	if hp.NumParam == 0 {
		hp.NumParam = defaultNumParam
	}

	logger.WithFields(log.Fields{
		"lane_width":   simd.Width,
		"native_width": simd.NativeWidth(),
		"cpu":          simd.Features(),
	}).Info("simd configuration")

	par := parallel.DefaultConfig()
	par.NumWorkers = p.workers
	par.Enabled = p.workers > 1

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := trainloop.NewMetrics(reg)
	if p.metricsAddr != "" {
		shutdown := serveMetrics(p.metricsAddr, reg, logger)
		defer shutdown()
	}

	upd, err := updater.New(kind)
	if err != nil {
		return err
	}
	obj := trainloop.NewQuadratic(hp.NumParam, 1, p.seed, par)
	loop, err := trainloop.New(upd, hp, obj, make([]float32, hp.NumParam), par, metrics, log.WithField("component", "trainloop"))
	if err != nil {
		return err
	}
	if p.restore != "" {
		if err := loop.Restore(p.restore); err != nil {
			return err
		}
	}

	logger.WithFields(log.Fields{
		"updater":       kind.String(),
		"num_param":     hp.NumParam,
		"learning_rate": hp.LearningRate,
		"decay_rate":    hp.DecayRate,
		"regu_type":     hp.ReguType.String(),
		"workers":       par.NumWorkers,
		"steps":         p.steps,
	}).Info("starting training")

	start := time.Now()
	loss, err := loop.Run(ctx, p.steps, p.logEvery)
	if err != nil {
		return errors.Wrap(err, "training")
	}
	logger.WithFields(log.Fields{
		"loss":     loss,
		"duration": time.Since(start).String(),
	}).Info("training finished")

	if p.checkpoint != "" {
		return loop.Checkpoint(p.checkpoint)
	}
	return nil
}

// serveMetrics exposes reg on addr and returns a function that shuts the
// server down.
func serveMetrics(addr string, reg *prometheus.Registry, logger *log.Entry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server failure")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("metrics server shutdown")
		}
	}
}
