package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haakonRefsvik/VA-student-performance/engine"
	"github.com/haakonRefsvik/VA-student-performance/metrics"
	"github.com/haakonRefsvik/VA-student-performance/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve one dashboard session over HTTP",
	Long: `Load the dataset, build the dashboard session and serve it.

Endpoints:
  POST /events               engine event envelope
  POST /views/{id}/selected  plotly selectedData, slider or checklist value
  GET  /state                latest update
  GET  /views/{id}           one view's payload
  GET  /metrics              Prometheus metrics (metrics.enabled)`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}

	var extra []engine.Option
	if rt.cfg.Metrics.Enabled {
		collector, err := metrics.NewCollector(rt.cfg.Metrics.Namespace, nil)
		if err != nil {
			return err
		}
		extra = append(extra, engine.WithMetrics(collector))
	}

	session, err := engine.NewSession(rt.table, rt.dashboard, rt.sessionOptions(extra...)...)
	if err != nil {
		return err
	}

	srv := server.New(session, rt.log, server.Options{
		EventsPerSecond: rt.cfg.Server.EventsPerSecond,
		Burst:           rt.cfg.Server.Burst,
		Gzip:            rt.cfg.Server.Gzip,
		Metrics:         rt.cfg.Metrics.Enabled,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, rt.cfg.Server.Addr, rt.cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		<-ctx.Done()
		rt.log.WithFields(logrus.Fields{
			"Reason": context.Cause(ctx),
		}).Infoln("Shutting down 🛑")
		return nil
	})
	return g.Wait()
}
