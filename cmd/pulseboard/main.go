// Command pulseboard runs a demo metrics workload and serves the dashboard
// API: synthetic writers emit frame counters, gauges, and latency
// histograms while the sampler flushes history on the configured interval.
package main

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/dashboard"
	"github.com/pulseboard/pulseboard/query"
	"github.com/pulseboard/pulseboard/registry"
)

func main() {
	var (
		configPath string
		addr       string
		writers    int
	)

	root := &cobra.Command{
		Use:   "pulseboard",
		Short: "In-process metrics registry demo with a JSON dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, addr, writers)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	root.Flags().StringVarP(&addr, "addr", "a", ":8080", "dashboard listen address")
	root.Flags().IntVarP(&writers, "writers", "w", 4, "synthetic writer goroutines")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath, addr string, writers int) error {
	log := logrus.New()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	reg, err := registry.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sampler := registry.NewSampler(reg)
	sampler.Start(ctx)
	defer sampler.Stop()

	for i := 0; i < writers; i++ {
		go emit(ctx, reg, i)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	dashboard.New(query.New(reg)).Register(engine)

	srv := &http.Server{Addr: addr, Handler: engine}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"addr":     addr,
		"writers":  writers,
		"interval": cfg.SampleInterval,
	}).Info("pulseboard dashboard listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// emit simulates a frame loop producing one counter, one gauge, and one
// histogram per writer.
func emit(ctx context.Context, reg *registry.Registry, id int) {
	labels := map[string]string{"writer": strconv.Itoa(id)}
	rng := rand.New(rand.NewSource(int64(id)))
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	var t float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t += 0.016
			reg.IncCounter("demo.frames", labels, 1)
			reg.SetGauge("demo.load", labels, 0.5+0.5*math.Sin(t))
			reg.ObserveHistogram("demo.frame.time", labels, 16+4*rng.NormFloat64())
		}
	}
}
