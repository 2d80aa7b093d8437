package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/amts/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve starts the HTTP API, optionally re-syncing every stored user's
// profile in the background first.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	db, release, err := r.connect()
	if err != nil {
		return err
	}
	defer release()

	engine, users, profiles, err := r.buildEngine(db)
	if err != nil {
		return err
	}

	tokens, err := r.tokenSource()
	if err != nil {
		return err
	}

	host := r.config.Server.Host
	if cmd.String("host") != "" {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.Int("port") != 0 {
		port = int(cmd.Int("port"))
	}

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handler(server.NewTasteHandler(engine, users, profiles, tokens, r.logger))

	if cmd.Bool("resync") {
		go func() {
			stored, err := users.List(nil)
			if err != nil {
				r.logger.Error("resync skipped, failed to list users", "error", err)
				return
			}
			r.logger.Info("resyncing stored profiles", "users", len(stored))
			synced := engine.SyncAll(ctx, stored)
			r.logger.Info("resync finished", "synced", synced, "total", len(stored))
		}()
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	r.logger.Info("starting server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
