package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jakekang28/GenAIHCI-sub001/room"
	"github.com/jakekang28/GenAIHCI-sub001/sessions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the http and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	gin.SetMode(cfg.HTTP.GinMode)

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	// the writer outlives the hub so queued writes from the last events still land
	writerCtx, stopWriter := context.WithCancel(context.Background())
	writer := room.NewWriter(st, cfg.Persist.QueueSize, cfg.Persist.Timeout())
	var writerDone sync.WaitGroup
	writerDone.Add(1)
	go func() {
		defer writerDone.Done()
		writer.Run(writerCtx)
	}()

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := room.NewHub(st, writer, cfg.Persist.LookupTimeout())
	hubStarted := make(chan struct{})
	go hub.Run(hubCtx, hubStarted)
	<-hubStarted

	wsHandler := room.NewHandler(hub, room.ClientOptions{
		OutboxSize:   cfg.Websocket.OutboxSize,
		RateLimit:    cfg.Websocket.RateLimit,
		Burst:        cfg.Websocket.Burst,
		PingInterval: cfg.Websocket.PingInterval(),
		ReadTimeout:  cfg.Websocket.ReadTimeout(),
	})
	sessionHandler := sessions.NewSessionHandler(sessions.NewService(st))

	r := CreateServer(cfg.HTTP.AllowedOrigins)
	r.GET("/ws", wsHandler.ServeWS)
	sessionHandler.RegisterRoutes(r.Group("/sessions"))

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("store", cfg.Store.Driver).Msg("server listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = srv.Shutdown(shutdownCtx)
		cancel()
	}

	stopHub()
	stopWriter()
	writerDone.Wait()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
