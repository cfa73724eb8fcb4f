// Package debug provides debug facilities.
package debug

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/arl/statsviz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// Handler returns HTTP handler with Prometheus metrics on /debug/metrics
// and runtime statistics on /debug/statsviz/.
func Handler(g prometheus.Gatherer, l *slog.Logger) (http.Handler, error) {
	mux := http.NewServeMux()

	opts := promhttp.HandlerOpts{
		ErrorLog:          slog.NewLogLogger(l.Handler(), slog.LevelError),
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	}
	mux.Handle("/debug/metrics", promhttp.HandlerFor(g, opts))

	if err := statsviz.Register(mux); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return mux, nil
}

// RunHandler runs debug HTTP server on the given address until ctx is canceled.
func RunHandler(ctx context.Context, addr string, h http.Handler, l *slog.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return lazyerrors.Error(err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 3 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()

		// ctx is already canceled
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	l.InfoContext(ctx, "Starting debug server", slog.String("addr", "http://"+lis.Addr().String()+"/debug/metrics"))

	if err = srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
		return lazyerrors.Error(err)
	}

	l.InfoContext(ctx, "Debug server stopped")

	return nil
}
