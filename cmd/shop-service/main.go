package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mohyerolo/inflearn-jpa/internal/config"
	"github.com/mohyerolo/inflearn-jpa/internal/logging"
	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

func main() {
	logger := logging.New(os.Stdout, os.Getenv("LOG_LEVEL"))
	logging.SetGlobal(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger = logging.New(os.Stdout, cfg.LogLevel)
	logging.SetGlobal(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, store.Options{
		Driver: cfg.StoreDriver,
		DSN:    cfg.StoreDSN,
		Logger: logger,
		LogSQL: cfg.LogSQL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}
	defer db.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(db, newServices(db, logger), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("grpc listen")
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("shop-service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("grpc health listening")
		return gs.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		hs.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		gs.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("shop-service stopped")
		return
	}
	log.Info().Msg("shop-service stopped")
}
