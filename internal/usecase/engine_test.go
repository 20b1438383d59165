package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"chatrag/internal/adapter/analyzer"
	"chatrag/internal/adapter/cache"
	"chatrag/internal/adapter/corpus"
	"chatrag/internal/adapter/embedding"
	"chatrag/internal/domain"
	"chatrag/internal/port"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeLLM) GenerateWithSystem(ctx context.Context, system, user string) (string, error) {
	return f.Generate(ctx, system+"\n\n"+user)
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

type countingSource struct {
	port.CorpusSource
	fetches int
}

func (s *countingSource) Fetch(ctx context.Context) ([]port.RawRecord, error) {
	s.fetches++
	return s.CorpusSource.Fetch(ctx)
}

type brokenSource struct{}

func (brokenSource) Fetch(ctx context.Context) ([]port.RawRecord, error) {
	return nil, domain.ErrSourceUnavailable
}

func (brokenSource) Name() string { return "broken" }

func laylaSource(t *testing.T) port.CorpusSource {
	t.Helper()
	src, err := corpus.MessagesSource(
		map[string]any{"id": 1, "user_name": "Layla", "timestamp": "2024-05-01T10:00:00", "message": "Layla is planning a trip to Paris in June"},
		map[string]any{"id": 2, "user_name": "Sam", "timestamp": "2024-05-02T10:00:00", "message": "The weather today is sunny"},
		map[string]any{"id": 3, "user_name": "Layla", "timestamp": "2024-05-03T10:00:00", "message": "Layla booked flights for her Paris trip"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func newTestEngine(t *testing.T, src port.CorpusSource, llm port.LLM) *Engine {
	t.Helper()
	tok := analyzer.NewTokenizer(true)
	e, err := NewEngine(context.Background(), EngineConfig{
		Embedder:     embedding.NewHashEmbedder(384, tok),
		Source:       src,
		LLM:          llm,
		TokenCounter: tok,
		TopK:         10,
		TokenBudget:  3000,
		QueryCache:   cache.NewQueryCache(16, time.Minute),
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestEngine_Retrieve(t *testing.T) {
	e := newTestEngine(t, laylaSource(t), nil)

	res, err := e.Retrieve(context.Background(), "when is layla's trip", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	ids := res.IDs()
	if len(ids) != 2 || (ids[0] != "1" && ids[0] != "3") || (ids[1] != "1" && ids[1] != "3") {
		t.Errorf("expected ids 1 and 3, got %v", ids)
	}

	stats := e.Stats()
	if stats.Messages != 3 || stats.Dimension != 384 || stats.Model != "hash-384" {
		t.Errorf("unexpected stats %+v", stats)
	}
	if e.DefaultTopK() != 10 {
		t.Errorf("expected default top_k 10, got %d", e.DefaultTopK())
	}
}

func TestEngine_InvalidTopK(t *testing.T) {
	e := newTestEngine(t, laylaSource(t), nil)

	for _, k := range []int{0, -3} {
		if _, err := e.Retrieve(context.Background(), "trip", k); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("k=%d: expected ErrInvalidArgument, got %v", k, err)
		}
	}
}

func largeSource(t *testing.T, n int) port.CorpusSource {
	t.Helper()
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{"id": i + 1, "user_name": "user", "message": fmt.Sprintf("message %d about a trip to city %d", i, i%7)}
	}
	src, err := corpus.MessagesSource(items...)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestEngine_ResultCountIsMinKN(t *testing.T) {
	const n = 150
	e := newTestEngine(t, largeSource(t, n), nil)

	for _, k := range []int{1, 10, 100, 120, 150, 151, 5000} {
		res, err := e.Retrieve(context.Background(), "trip", k)
		if err != nil {
			t.Fatalf("k=%d: unexpected error %v", k, err)
		}
		if want := min(k, n); len(res) != want {
			t.Errorf("k=%d: expected %d results, got %d", k, want, len(res))
		}
		seen := make(map[string]bool, len(res))
		for i, r := range res {
			if seen[r.Message.ID] {
				t.Fatalf("k=%d: duplicate id %s", k, r.Message.ID)
			}
			seen[r.Message.ID] = true
			if i > 0 && r.Score > res[i-1].Score {
				t.Fatalf("k=%d: scores not descending at %d", k, i)
			}
		}
	}
}

func TestEngine_ConcurrentRetrieve(t *testing.T) {
	e := newTestEngine(t, laylaSource(t), nil)
	queries := []string{"trip", "paris", "weather", ""}

	want := make(map[string][]string, len(queries))
	for _, q := range queries {
		res, err := e.Retrieve(context.Background(), q, 2)
		if err != nil {
			t.Fatal(err)
		}
		want[q] = res.IDs()
	}

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				q := queries[(w+i)%len(queries)]
				// alternate k so both cache hits and misses are exercised
				k := 2 + i%2
				res, err := e.Retrieve(context.Background(), q, k)
				if err != nil {
					errs <- err
					return
				}
				ids := res.IDs()
				if len(ids) != k {
					errs <- fmt.Errorf("query %q k=%d: got %d results", q, k, len(ids))
					return
				}
				if ids[0] != want[q][0] || ids[1] != want[q][1] {
					errs <- fmt.Errorf("query %q: got %v, want prefix %v", q, ids, want[q])
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestEngine_EmptyCorpus(t *testing.T) {
	src, _ := corpus.MessagesSource()
	e := newTestEngine(t, src, nil)

	res, err := e.Retrieve(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(res) != 0 {
		t.Errorf("expected no results, got %d", len(res))
	}
}

func TestEngine_SourceFailure(t *testing.T) {
	_, err := NewEngine(context.Background(), EngineConfig{
		Embedder: embedding.NewHashEmbedder(8, analyzer.NewTokenizer(true)),
		Source:   brokenSource{},
	})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestEngine_ModelFailureStopsBeforeFetch(t *testing.T) {
	src := &countingSource{CorpusSource: laylaSource(t)}
	_, err := NewEngine(context.Background(), EngineConfig{
		Embedder: embedding.NewHashEmbedder(0, analyzer.NewTokenizer(true)),
		Source:   src,
	})
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
	if src.fetches != 0 {
		t.Errorf("corpus should not be fetched after a model failure, got %d fetches", src.fetches)
	}
}

func TestEngine_Answer(t *testing.T) {
	llm := &fakeLLM{reply: "  Layla's trip to Paris is in June.\n"}
	e := newTestEngine(t, laylaSource(t), llm)

	ans, err := e.Answer(context.Background(), "When is Layla's trip?", 2)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if ans.Text != "Layla's trip to Paris is in June." {
		t.Errorf("unexpected answer %q", ans.Text)
	}
	if ans.Model != "fake-llm" || len(ans.Sources) != 2 {
		t.Errorf("unexpected answer metadata %+v", ans)
	}
	if len(llm.prompts) != 1 || !strings.Contains(llm.prompts[0], "User: Layla, Message: Layla booked flights") {
		t.Errorf("prompt should carry the retrieved context, got %v", llm.prompts)
	}
}

func TestEngine_AnswerErrors(t *testing.T) {
	e := newTestEngine(t, laylaSource(t), &fakeLLM{err: errors.New("rate limited")})

	if _, err := e.Answer(context.Background(), "When?", 2); !errors.Is(err, domain.ErrLLMUnavailable) {
		t.Errorf("expected ErrLLMUnavailable, got %v", err)
	}
	if _, err := e.Answer(context.Background(), "   ", 2); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for blank question, got %v", err)
	}

	noLLM := newTestEngine(t, laylaSource(t), nil)
	if _, err := noLLM.Answer(context.Background(), "When?", 2); !errors.Is(err, domain.ErrLLMUnavailable) {
		t.Errorf("expected ErrLLMUnavailable without a model, got %v", err)
	}
}

func TestEngine_Prompt(t *testing.T) {
	e := newTestEngine(t, laylaSource(t), nil)

	packed, prompt, err := e.Prompt(context.Background(), "When is Layla's trip?", 2)
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	if len(packed.Lines) != 2 {
		t.Errorf("expected 2 context lines, got %d", len(packed.Lines))
	}
	if !strings.Contains(prompt, "Question:\nWhen is Layla's trip?") {
		t.Errorf("unexpected prompt:\n%s", prompt)
	}
}

func TestIndexUseCase_BatchesAndProgress(t *testing.T) {
	msgs := make([]domain.Message, 7)
	for i := range msgs {
		msgs[i] = domain.Message{ID: string(rune('a' + i)), Text: "message body"}
	}
	uc := NewIndexUseCase(embedding.NewHashEmbedder(16, analyzer.NewTokenizer(true)), IndexOptions{BatchSize: 3}, nil)

	var calls [][2]int
	res, err := uc.Build(context.Background(), msgs, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.Messages != 7 || res.Batches != 3 {
		t.Errorf("expected 7 messages in 3 batches, got %d in %d", res.Messages, res.Batches)
	}
	want := [][2]int{{3, 7}, {6, 7}, {7, 7}}
	if len(calls) != len(want) {
		t.Fatalf("expected progress %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("progress %d: expected %v, got %v", i, want[i], calls[i])
		}
	}
	if m, ok := res.Index.Message(4); !ok || m.ID != "e" {
		t.Errorf("index position 4 should be message e")
	}
}

func TestEmbedText(t *testing.T) {
	m := domain.Message{Text: "Dinner at 8", UserName: "Layla", Timestamp: "2024-05-01"}

	if got := EmbedText(m, false); got != "Dinner at 8" {
		t.Errorf("without metadata got %q", got)
	}
	if got := EmbedText(m, true); got != "Dinner at 8 Layla 2024-05-01" {
		t.Errorf("with metadata got %q", got)
	}
	if got := EmbedText(domain.Message{Text: "hi"}, true); got != "hi" {
		t.Errorf("missing metadata should not add separators, got %q", got)
	}
}
