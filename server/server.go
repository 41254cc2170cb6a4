package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"magicwords/config"
	"magicwords/logger"
)

// Start serves handler on cfg.HTTPAddr until ctx is cancelled, then shuts
// down gracefully within cfg.ShutdownTimeout.
func Start(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	return Serve(ctx, cfg, ln, handler)
}

// Serve is Start on an existing listener.
func Serve(ctx context.Context, cfg *config.Config, ln net.Listener, handler http.Handler) error {
	// 设置服务器超时
	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", ln.Addr().String()))
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
