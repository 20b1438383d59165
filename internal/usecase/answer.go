package usecase

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"chatrag/internal/domain"
	"chatrag/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var answerTemplate = template.Must(
	template.New("answer.txt").
		Funcs(template.FuncMap{"formatLine": FormatLine}).
		ParseFS(promptTemplates, "templates/answer.txt"),
)

// AnswerUseCase retrieves context for a question and asks the LLM.
type AnswerUseCase struct {
	retrieve    *RetrieveUseCase
	pack        *PackUseCase
	llm         port.LLM
	tokenBudget int
	logger      *slog.Logger
}

func NewAnswerUseCase(retrieve *RetrieveUseCase, pack *PackUseCase, llm port.LLM, tokenBudget int, logger *slog.Logger) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		retrieve:    retrieve,
		pack:        pack,
		llm:         llm,
		tokenBudget: tokenBudget,
		logger:      logger,
	}
}

// Prepare retrieves and packs context and renders the prompt, without
// calling the LLM.
func (u *AnswerUseCase) Prepare(ctx context.Context, question string, topK int) (domain.PackedContext, string, error) {
	if strings.TrimSpace(question) == "" {
		return domain.PackedContext{}, "", fmt.Errorf("%w: question is empty", domain.ErrInvalidArgument)
	}

	results, err := u.retrieve.Retrieve(ctx, question, topK)
	if err != nil {
		return domain.PackedContext{}, "", err
	}

	packed := u.pack.Pack(question, results, u.tokenBudget)
	prompt, err := RenderPrompt(packed)
	if err != nil {
		return domain.PackedContext{}, "", err
	}
	return packed, prompt, nil
}

// Answer runs the full retrieve, pack and generate flow.
func (u *AnswerUseCase) Answer(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if u.llm == nil {
		return nil, fmt.Errorf("%w: no language model configured", domain.ErrLLMUnavailable)
	}

	packed, prompt, err := u.Prepare(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := u.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	u.logger.Debug("answer generated",
		"model", u.llm.ModelName(),
		"context_lines", len(packed.Lines),
		"context_tokens", packed.UsedTokens,
		"dropped", packed.Dropped,
		"duration", time.Since(start).Round(time.Millisecond))

	return &domain.Answer{
		Question: question,
		Text:     strings.TrimSpace(text),
		Sources:  packed.Lines,
		Model:    u.llm.ModelName(),
	}, nil
}

// RenderPrompt fills the answer template with packed context.
func RenderPrompt(packed domain.PackedContext) (string, error) {
	var buf bytes.Buffer
	if err := answerTemplate.Execute(&buf, packed); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
