// Copyright © 2025 Stagesync contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/stagesync-server/main.go
// Summary: Room synchronization server entrypoint.
// Usage: stagesync-server [-listen :8155] [-config stagesync.yaml] [-assets dir] [-catalog file.db] [-verbose]

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stagesync/catalog"
	"stagesync/config"
	"stagesync/server"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	listen := flag.String("listen", "", "listen address, overrides config")
	assetDir := flag.String("assets", "", "model asset directory, overrides config")
	catalogPath := flag.String("catalog", "", "project catalog database, overrides config")
	verbose := flag.Bool("verbose", false, "development logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stagesync-server: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *assetDir != "" {
		cfg.AssetDir = *assetDir
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *verbose {
		cfg.Verbose = true
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stagesync-server: logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store := server.NewRoomStore()
	gateway := server.NewGateway(store, server.NewRegistry(store), log)

	if cfg.CatalogPath != "" {
		cat, err := catalog.Open(cfg.CatalogPath)
		if err != nil {
			log.Fatal("open catalog", zap.Error(err))
		}
		defer cat.Close()
		gateway.SetCatalog(cat)
	}

	srv := server.NewServer(cfg.Listen, gateway, log)
	if cfg.AssetDir != "" {
		srv.SetAssetDir(cfg.AssetDir)
	}
	if err := srv.Start(); err != nil {
		log.Fatal("start server", zap.Error(err))
	}
	log.Info("listening", zap.String("addr", srv.Addr()))

	metricsDone := make(chan struct{})
	go logMetrics(gateway, server.NewMetricsLogger(log), metricsDone)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	close(metricsDone)

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func logMetrics(gateway *server.Gateway, obs server.MetricsObserver, done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			obs.ObserveMetrics(gateway.Metrics().Snapshot())
		case <-done:
			return
		}
	}
}
