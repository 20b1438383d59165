package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber application with every route registered.
func NewApp(svc Service, logger *slog.Logger) *fiber.App {
	var (
		app          = fiber.New(fiber.Config{ErrorHandler: ErrorHandler, DisableStartupMessage: true})
		checkHandler = NewCheckHandler()
		ragHandler   = NewRAGHandler(svc, logger)
		check        = app.Group("/check")
	)

	app.Get("/", ragHandler.HandleIndex)
	app.Post("/ask", ragHandler.HandleAsk)
	app.Post("/retrieve", ragHandler.HandleRetrieve)
	app.Get("/stats", ragHandler.HandleStats)
	check.Get("/healthy", checkHandler.HandleHealthy)

	return app
}

type Server struct {
	listenAddr string
	app        *fiber.App
	logger     *slog.Logger
}

func NewServer(addr string, svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		listenAddr: addr,
		app:        NewApp(svc, logger),
		logger:     logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.listenAddr)
		errCh <- s.app.Listen(s.listenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		s.logger.Error("error to stop server", "error", err.Error())
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
