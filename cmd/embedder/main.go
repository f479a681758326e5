package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"embed-service/internal/app"
	"embed-service/internal/embeddings"
	"embed-service/internal/httputil"
	"embed-service/internal/messaging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Default().Error("embed service stopped", "err", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or a server fails.
func run(ctx context.Context) error {
	deps, err := app.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("shutdown cleanup failed", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              deps.Config.Addr(),
		Handler:           routes(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Log.Info("embed service listening", "addr", srv.Addr, "model", deps.Config.EmbeddingModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.ShutdownTimeout)
		defer cancel()
		deps.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if deps.NATS != nil {
		responder := messaging.NewResponder(deps.Log, deps.NATS, deps.Embedder, deps.Config.RequestTimeout)
		g.Go(func() error {
			return responder.Serve(ctx, deps.Config.NATSSubject, deps.Config.NATSQueueGroup)
		})
	}

	return g.Wait()
}

func routes(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Config.RequestTimeout)
	r.Post("/embed", embedHandler(deps))
	return r
}

// embedHandler returns the embedding of the body's text field as a JSON array.
func embedHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]json.RawMessage
		if err := httputil.DecodeJSON(w, r, deps.Config.MaxBodyBytes, &fields); err != nil {
			httputil.Fail(deps.Log, w, "invalid request body", err, httputil.DecodeStatus(err))
			return
		}
		text, err := embeddings.RequestText(fields)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid request body", err, http.StatusBadRequest)
			return
		}

		vec, err := deps.Embedder.Embed(r.Context(), text)
		if err != nil {
			httputil.Fail(deps.Log, w, "embedding failed", err, http.StatusInternalServerError)
			return
		}
		if vec == nil {
			vec = embeddings.Vector{}
		}
		httputil.WriteJSON(w, http.StatusOK, vec)
	}
}
