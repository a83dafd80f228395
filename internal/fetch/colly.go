package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls the Colly-backed client.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	Concurrency    int
}

// CollyClient implements Getter using the Colly collector.
type CollyClient struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyClient constructs a configured Colly-based Getter.
func NewCollyClient(cfg Config, logger *zap.Logger) (*CollyClient, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 12 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 16
	}

	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	// Tracker error pages (404, rate-limit banners) still carry usable
	// markup for the fallback chains.
	base.ParseHTTPErrorResponse = true
	base.IgnoreRobotsTxt = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       cfg.Concurrency * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &CollyClient{
		baseCollector: base,
		logger:        logger,
	}, nil
}

// Get retrieves a page via a clone of the base collector.
func (c *CollyClient) Get(ctx context.Context, req Request) (Page, error) {
	collector := c.baseCollector.Clone()
	resultCh := make(chan getResult, 1)
	var once sync.Once
	send := func(res getResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range req.Headers {
			for _, v := range values {
				r.Headers.Set(key, v)
			}
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			for k, v := range *r.Headers {
				cp := make([]string, len(v))
				copy(cp, v)
				headers[k] = cp
			}
		}
		page := Page{
			URL:        req.URL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte{}, r.Body...),
		}
		send(getResult{page: page})
	})

	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(getResult{err: err})
	})

	if err := collector.Visit(req.URL); err != nil {
		return Page{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}
		if res.err != nil {
			c.logger.Debug("fetch failed", zap.String("url", req.URL), zap.Error(res.err))
		}
		return res.page, res.err
	default:
		return Page{}, errors.New("colly fetch produced no result")
	}
}

type getResult struct {
	page Page
	err  error
}
