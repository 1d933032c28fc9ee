package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/imitate/internal/codec"
	"github.com/danielpatrickdp/imitate/internal/config"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Backend == config.BackendRemote {
		return errors.New("serve needs a local backend, not remote")
	}
	st, err := openStack(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}
	srv := grpc.NewServer()
	codec.RegisterFeedbackServiceServer(srv, codec.NewServer(st.backend))

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[CODEC] metrics: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	log.Printf("[CODEC] feedback service (%s) listening on %s", cfg.Backend, lis.Addr())
	return srv.Serve(lis)
}
