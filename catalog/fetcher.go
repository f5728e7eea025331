package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"realestate-insights/metrics"
	"realestate-insights/models"
	"realestate-insights/utils"
)

const (
	// DefaultPageSize is the per_page value requested from the catalog.
	DefaultPageSize = 100
	// maxAuthRetries bounds re-logins for one page request.
	maxAuthRetries = 2
	// maxPageBodySize caps a single page response.
	maxPageBodySize = 32 << 20
)

// TokenProvider supplies bearer tokens to the fetcher.
type TokenProvider interface {
	EnsureValidToken(ctx context.Context) (string, error)
	Invalidate()
}

// Normalizer maps raw catalog entries onto canonical projects.
type Normalizer interface {
	Normalize(raw []models.RawRecord) []*models.Project
}

type pageEnvelope struct {
	Data []models.RawRecord `json:"data"`
	Meta *pageMeta          `json:"meta"`
}

type pageMeta struct {
	Total    *int `json:"total"`
	LastPage *int `json:"last_page"`
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	BaseURL     string
	PageSize    int
	RateLimitMs int
	Client      *http.Client
}

// Fetcher walks the catalog page by page. Pages are requested strictly in
// sequence; cancellation is checked before each page.
type Fetcher struct {
	baseURL    string
	pageSize   int
	client     *http.Client
	tokens     TokenProvider
	normalizer Normalizer
	pacer      *utils.Pacer
	breaker    *gobreaker.CircuitBreaker[*pageResult]
	logger     *utils.Logger
}

// NewFetcher creates a ready-to-use Fetcher.
func NewFetcher(cfg FetcherConfig, tokens TokenProvider, normalizer Normalizer, logger *utils.Logger) *Fetcher {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger = logger.With("catalog")

	return &Fetcher{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:   pageSize,
		client:     client,
		tokens:     tokens,
		normalizer: normalizer,
		pacer:      utils.NewPacer(cfg.RateLimitMs),
		breaker:    newPageBreaker(logger),
		logger:     logger,
	}
}

// FetchAll retrieves every page and returns the normalized projects.
// Any failure discards the pages accumulated so far.
func (f *Fetcher) FetchAll(ctx context.Context, onProgress func(models.Progress)) ([]*models.Project, error) {
	raw, err := f.FetchRaw(ctx, onProgress)
	if err != nil {
		return nil, err
	}
	return f.normalizer.Normalize(raw), nil
}

// FetchRaw walks the pages and returns the records as decoded.
//
// The walk stops on an empty page, on the last page announced by the
// metadata, or, without a last_page hint, on a short page.
func (f *Fetcher) FetchRaw(ctx context.Context, onProgress func(models.Progress)) ([]models.RawRecord, error) {
	var records []models.RawRecord

	for page := 1; ; page++ {
		if err := f.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("catalog: stopped before page %d: %w", page, err)
		}

		env, err := f.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}

		if len(env.Data) == 0 {
			f.logger.Debug().Int("page", page).Msg("[catalog] Empty page, stopping")
			break
		}

		records = append(records, env.Data...)
		metrics.PagesFetched.Inc()

		total := len(records)
		if env.Meta != nil && env.Meta.Total != nil {
			total = *env.Meta.Total
		}
		f.logger.Debug().Int("page", page).Int("loaded", len(records)).Int("total", total).Msg("[catalog] Page fetched")
		if onProgress != nil {
			onProgress(models.Progress{Loaded: len(records), Total: total, Page: page})
		}

		if env.Meta != nil && env.Meta.LastPage != nil {
			if page >= *env.Meta.LastPage {
				break
			}
			continue
		}
		if len(env.Data) < f.pageSize {
			break
		}
	}

	f.logger.Info().Int("records", len(records)).Msg("[catalog] Catalog walk complete")
	return records, nil
}

// fetchPage requests one page, re-logging in after a 401 at most
// maxAuthRetries times.
func (f *Fetcher) fetchPage(ctx context.Context, page int) (*pageEnvelope, error) {
	for attempt := 0; ; attempt++ {
		token, err := f.tokens.EnsureValidToken(ctx)
		if err != nil {
			return nil, err
		}

		res, err := f.get(ctx, page, token)
		if err != nil {
			status := 0
			if res != nil {
				status = res.status
			}
			return nil, &FetchError{Page: page, StatusCode: status, Err: err}
		}

		if res.status == http.StatusUnauthorized {
			if attempt >= maxAuthRetries {
				return nil, &AuthError{
					Op:         fmt.Sprintf("page %d", page),
					StatusCode: res.status,
					Err:        fmt.Errorf("still unauthorized after %d re-logins", maxAuthRetries),
				}
			}
			metrics.AuthRetries.Inc()
			f.logger.Warn().Int("page", page).Int("attempt", attempt+1).Msg("[catalog] Unauthorized, forcing re-login")
			f.tokens.Invalidate()
			continue
		}

		if res.status < 200 || res.status >= 300 {
			return nil, &FetchError{Page: page, StatusCode: res.status, Err: fmt.Errorf("%s", truncateBody(res.body))}
		}

		var env pageEnvelope
		if err := json.Unmarshal(res.body, &env); err != nil {
			return nil, &FetchError{Page: page, StatusCode: res.status, Err: fmt.Errorf("decode page: %w", err)}
		}
		return &env, nil
	}
}

func (f *Fetcher) get(ctx context.Context, page int, token string) (*pageResult, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(f.pageSize))
	reqURL := f.baseURL + "/empreendimentos?" + params.Encode()

	return f.breaker.Execute(func() (*pageResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := f.client.Do(req)
		if err != nil {
			metrics.PageRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBodySize))
		metrics.PageRequestDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
		if err != nil {
			return &pageResult{status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
		}

		res := &pageResult{status: resp.StatusCode, body: body}
		if resp.StatusCode >= 500 {
			return res, fmt.Errorf("server error: %s", truncateBody(body))
		}
		return res, nil
	})
}
