package usecase

import (
	"fmt"

	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// PackUseCase fits retrieved messages into a prompt token budget.
type PackUseCase struct {
	counter port.TokenCounter
}

// NewPackUseCase creates a new pack use case.
func NewPackUseCase(counter port.TokenCounter) *PackUseCase {
	return &PackUseCase{counter: counter}
}

// FormatLine renders one context line the way the answer prompt expects.
func FormatLine(l domain.ContextLine) string {
	return fmt.Sprintf("[Timestamp: %s], User: %s, Message: %s", l.Timestamp, l.UserName, l.Text)
}

// Pack keeps results in rank order, skipping any line that would overflow
// budget. A budget of 0 or less disables the limit.
func (u *PackUseCase) Pack(question string, results domain.QueryResult, budget int) domain.PackedContext {
	packed := domain.PackedContext{
		Question:     question,
		BudgetTokens: budget,
		Lines:        make([]domain.ContextLine, 0, len(results)),
	}

	for _, r := range results {
		line := domain.ContextLine{
			MessageID: r.Message.ID,
			Timestamp: r.Message.Timestamp,
			UserName:  r.Message.UserName,
			Text:      r.Message.Text,
			Score:     r.Score,
		}
		line.Tokens = u.counter.CountTokens(FormatLine(line))

		if budget > 0 && packed.UsedTokens+line.Tokens > budget {
			packed.Dropped++
			continue
		}
		packed.Lines = append(packed.Lines, line)
		packed.UsedTokens += line.Tokens
	}

	return packed
}
