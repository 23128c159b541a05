package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"datastore/internal/config"
	"datastore/internal/server"
	"datastore/internal/store"
)

func main() {
	configPath := flag.String("config", "", "topology file; omitted means a single in-memory store")
	addr := flag.String("addr", ":8000", "listen address for the HTTP API")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	root, closeAll, err := buildStore(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("invalid store topology")
	}

	color.Cyan("datastore gateway")
	color.White("  listening on %s", *addr)
	if *configPath != "" {
		color.White("  topology from %s", *configPath)
	} else {
		color.Yellow("  no topology file: using a single in-memory store")
	}

	srv := &http.Server{
		Addr:    *addr,
		Handler: server.New(root).Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("shutdown incomplete")
	}
	if err := closeAll(); err != nil {
		logrus.WithError(err).Error("closing stores failed")
	}
}

func buildStore(configPath string) (store.Datastore, func() error, error) {
	if configPath == "" {
		return store.NewMap(), func() error { return nil }, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Build()
}
