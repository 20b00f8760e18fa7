package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sunnyhub/openwhisk/internal/cache"
	"github.com/sunnyhub/openwhisk/internal/config"
	"github.com/sunnyhub/openwhisk/internal/container"
	"github.com/sunnyhub/openwhisk/internal/containerpool"
	"github.com/sunnyhub/openwhisk/internal/dispatcher"
	"github.com/sunnyhub/openwhisk/internal/metrics"
)

func cacheSetup() {
	cache.Size = config.GetInt(config.CACHE_SIZE, 1000)
	cache.CleanupInterval = time.Duration(config.GetInt(config.CACHE_CLEANUP_INTERVAL, 60)) * time.Second
	cache.DefaultExp = time.Duration(config.GetInt(config.CACHE_ITEM_EXPIRATION, 60)) * time.Second
	cache.GetCacheInstance()
}

func initBackend() container.ContainerBackend {
	manager := config.GetString(config.DEFAULT_CONTAINER_MANAGER, "docker")
	if manager == "podman" {
		return container.InitPodmanContainerFactory()
	}
	return container.InitDockerContainerFactory()
}

func registerTerminationHandler(pool *containerpool.Pool, srv *dispatcher.Server) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		s := <-sig
		fmt.Printf("Got %s signal. Terminating...\n", s)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Println(err)
		}

		pool.Shutdown()
		os.Exit(0)
	}()
}

func main() {
	configFileName := ""
	if len(os.Args) > 1 {
		configFileName = os.Args[1]
	}
	config.ReadConfiguration(configFileName)

	cacheSetup()

	backend := initBackend()

	pool := containerpool.New(backend, containerpool.ConfigFromViper())
	if err := pool.KillStragglers(); err != nil {
		log.Printf("invoker: failed to clean up stragglers at startup: %v", err)
	}
	pool.StartGC()

	metrics.Init()
	metrics.WatchPool(pool, 5*time.Second)

	srv := dispatcher.NewServer(pool, backend)
	registerTerminationHandler(pool, srv)

	port := config.GetInt(config.API_PORT, 1323)
	if err := srv.Start(fmt.Sprintf(":%d", port)); err != nil {
		log.Println(err)
	}
}
