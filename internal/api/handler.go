package api

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"chatrag/internal/domain"
	"chatrag/internal/usecase"
)

//go:embed static/index.html
var indexHTML []byte

// Service is the part of the engine the HTTP layer needs.
type Service interface {
	Retrieve(ctx context.Context, query string, topK int) (domain.QueryResult, error)
	Answer(ctx context.Context, question string, topK int) (*domain.Answer, error)
	DefaultTopK() int
	Stats() domain.Stats
}

type AskResponse struct {
	Answer    string               `json:"answer"`
	Sources   []domain.ContextLine `json:"sources"`
	Model     string               `json:"model"`
	RequestID string               `json:"request_id"`
}

type RetrieveResponse struct {
	Query     string                        `json:"query"`
	TopK      int                           `json:"top_k"`
	Results   []usecase.ScoredMessageResult `json:"results"`
	RequestID string                        `json:"request_id"`
}

type RAGHandler struct {
	svc    Service
	logger *slog.Logger
}

func NewRAGHandler(svc Service, logger *slog.Logger) *RAGHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RAGHandler{svc: svc, logger: logger}
}

func (h *RAGHandler) HandleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

func (h *RAGHandler) HandleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}

	requestID := uuid.NewString()
	topK := topKOrDefault(req.TopK, h.svc.DefaultTopK())
	ans, err := h.svc.Answer(c.UserContext(), req.Question, topK)
	if err != nil {
		h.logger.Warn("ask failed", "request_id", requestID, "error", err)
		return err
	}
	h.logger.Info("ask", "request_id", requestID, "top_k", topK, "sources", len(ans.Sources))

	return c.JSON(AskResponse{
		Answer:    ans.Text,
		Sources:   ans.Sources,
		Model:     ans.Model,
		RequestID: requestID,
	})
}

func (h *RAGHandler) HandleRetrieve(c *fiber.Ctx) error {
	var req RetrieveRequest
	if err := parseRequest(c, &req); err != nil {
		return err
	}

	requestID := uuid.NewString()
	topK := topKOrDefault(req.TopK, h.svc.DefaultTopK())
	results, err := h.svc.Retrieve(c.UserContext(), req.Question, topK)
	if err != nil {
		return err
	}
	h.logger.Debug("retrieve", "request_id", requestID, "top_k", topK, "results", len(results))

	return c.JSON(RetrieveResponse{
		Query:     req.Question,
		TopK:      topK,
		Results:   usecase.Flatten(results),
		RequestID: requestID,
	})
}

func (h *RAGHandler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.svc.Stats())
}

func parseRequest(c *fiber.Ctx, req Validater) error {
	if err := c.BodyParser(req); err != nil {
		return ErrBadRequest()
	}
	if errs := req.Validate(); len(errs) > 0 {
		return NewValidationError(errs)
	}
	return nil
}
