package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// HTTPSource pages through a messages endpoint with skip/limit query
// parameters until it returns an empty page. Failures are not retried.
type HTTPSource struct {
	url      string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// HTTPSourceConfig configures an HTTPSource.
type HTTPSourceConfig struct {
	URL         string
	PageSize    int
	Timeout     time.Duration // per request
	PagesPerSec float64       // 0 disables pacing
	Logger      *slog.Logger
}

func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 3500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.PagesPerSec > 0 {
		limit = rate.Limit(cfg.PagesPerSec)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSource{
		url:      cfg.URL,
		pageSize: cfg.PageSize,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

func (s *HTTPSource) Name() string {
	return s.url
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]port.RawRecord, error) {
	var all []port.RawRecord
	skip := 0

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}

		items, err := s.fetchPage(ctx, skip)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (skip=%d): %v", domain.ErrSourceUnavailable, s.url, skip, err)
		}
		s.logger.Debug("fetched page", "skip", skip, "items", len(items))

		if len(items) == 0 {
			break
		}
		all = append(all, items...)
		skip += len(items)
	}

	return all, nil
}

func (s *HTTPSource) fetchPage(ctx context.Context, skip int) ([]port.RawRecord, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	q := u.Query()
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(s.pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return decodeItems(body)
}
