// Command pagemark runs the web-page-to-Markdown conversion service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagemark/pagemark/internal/app"
	"github.com/pagemark/pagemark/internal/logging"
	"github.com/pagemark/pagemark/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	listenAddr := flag.String("listen", "", "listen address (overrides config)")
	flag.Parse()

	logger := logging.New("pagemark")

	appCfg := app.DefaultConfig()
	if *configPath != "" {
		if err := appCfg.LoadFile(*configPath); err != nil {
			logger.Error("loading config", logging.Field{Key: "error", Value: err.Error()})
			os.Exit(1)
		}
	}
	appCfg.FromEnv()

	srvCfg := server.DefaultConfig()
	srvCfg.FromEnv()
	srvCfg.AppConfig = appCfg
	srvCfg.Logger = logger
	if *listenAddr != "" {
		srvCfg.ListenAddr = *listenAddr
	}

	srv, err := server.NewServer(srvCfg)
	if err != nil {
		logger.Error("starting server", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	defer srv.Close()

	httpSrv := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: srvCfg.ListenAddr})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", logging.Field{Key: "error", Value: err.Error()})
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}
