// Copyright © 2025 Stagesync contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/stagesync-probe/main.go
// Summary: Headless room client for scripted checks.
// Usage: stagesync-probe -url ws://host:8155/ws -project <id> [-name Probe] [-create-camera]
// Notes: Joins a room, logs what it sees, and can drop a demo camera to
//        exercise the full local-edit path.

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stagesync/client"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:8155/ws", "gateway websocket endpoint")
	project := flag.String("project", "", "project room to join (required)")
	name := flag.String("name", "Probe", "display name in the room")
	createCamera := flag.Bool("create-camera", false, "create a demo camera after joining")
	joinTimeout := flag.Duration("join-timeout", 10*time.Second, "how long to wait for the room snapshot")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if *project == "" {
		log.Fatal("missing -project")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *joinTimeout)
	defer cancel()

	c, err := client.Dial(ctx, *url, client.Options{
		ProjectID: *project,
		UserName:  *name,
		Logger:    log,
	})
	if err != nil {
		log.Fatal("dial failed", zap.Error(err))
	}
	defer c.Close()

	if err := c.Join(ctx); err != nil {
		log.Fatal("join failed", zap.Error(err))
	}
	store := c.Store()
	log.Info("joined",
		zap.String("project", *project),
		zap.Int("cameras", len(store.Cameras())),
		zap.Int("models", len(store.Models())),
		zap.String("live", store.LiveCameraID()),
	)
	for _, cam := range store.Cameras() {
		log.Info("camera",
			zap.String("id", cam.ID),
			zap.String("name", cam.Name),
			zap.Float64("fov", cam.FOV),
			zap.Bool("live", cam.IsLive),
		)
	}

	if *createCamera {
		cam := store.AddCamera()
		log.Info("created demo camera", zap.String("id", cam.ID), zap.String("name", cam.Name))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-c.Done():
		if err := c.Err(); err != nil {
			log.Warn("connection lost", zap.Error(err))
		}
	}
	c.Leave()
}
