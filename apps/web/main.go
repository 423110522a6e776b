package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoweb "github.com/trezcool/fellowship/apps/web/echo"
	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/services/api"
	emailsvc "github.com/trezcool/fellowship/services/email"
	logsvc "github.com/trezcool/fellowship/services/logger"
	sessionstore "github.com/trezcool/fellowship/storage/session"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewStd(conf), conf)
	logger.Enable(!conf.Debug)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := api.NewClient(api.Options{
		BaseURL: conf.API.BaseURL,
		Timeout: conf.API.Timeout,
		Metrics: api.NewMetrics(reg),
		Logger:  logger,
	})

	sessions, closer, err := sessionstore.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session store: %v", err), err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing session store: %v", err), err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - prometheus collectors, backend round trips included.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Web Service

	server := echoweb.NewServer(echoweb.ServerDeps{
		Conf:     conf,
		Logger:   logger,
		API:      client,
		Sessions: sessions,
		Email:    mailSvc,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
