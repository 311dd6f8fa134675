package api

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curaious/sandpilot/internal/config"
	"github.com/curaious/sandpilot/internal/migrations"
	"github.com/curaious/sandpilot/internal/orchestration"
	"github.com/curaious/sandpilot/internal/services"
	"github.com/valyala/fasthttp"
	"go.temporal.io/sdk/client"
)

// Server is the report gateway: the HTTP surface sandboxes and operators use
// to start runs, deliver completion reports and read run state.
type Server struct {
	srv            *fasthttp.Server
	addr           string
	services       *services.Services
	temporalClient client.Client
	taskQueue      string
}

// New builds the gateway, running pending migrations and connecting to
// Temporal up front.
func New() *Server {
	conf := config.ReadConfig()

	m, err := migrations.NewMigrator()
	if err != nil {
		panic("unable to create migrator")
	}

	if err := m.Up(0); err != nil {
		panic("unable to run migrations")
	}

	temporalClient, err := orchestration.Dial(conf)
	if err != nil {
		panic("unable to create temporal client")
	}

	s := &Server{
		srv:            &fasthttp.Server{},
		addr:           conf.GATEWAY_ADDR,
		services:       services.NewServices(conf),
		temporalClient: temporalClient,
		taskQueue:      conf.SANDBOX_TASK_QUEUE,
	}

	s.srv.Handler = s.initRoutes()

	return s
}

// Start the rest server
func (s *Server) Start() {
	slog.Info("Starting report gateway...", slog.String("addr", s.addr))
	go func() {
		if err := s.srv.ListenAndServe(s.addr); err != nil {
			slog.Error("Server shutdown", slog.Any("error", err))
		}
	}()
	slog.Info("Report gateway started!")

	// Listen for OS interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block till we receive an interrupt
	<-c
	slog.Info("Received interrupt...")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.shutdown(ctx)
}

func (s *Server) shutdown(_ context.Context) {
	slog.Info("Gracefully shutting down report gateway...")
	if err := s.srv.Shutdown(); err != nil {
		slog.Error("Failed to shutdown the server", slog.Any("error", err))
	}

	s.temporalClient.Close()
	slog.Info("Report gateway shutdown!")
}
