// Package oracle adapts an external name-correction service behind the
// service.NameCorrector contract: bounded latency, explicit fallback, and
// a sentinel for names the oracle refuses to guess at.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bonsplit/bonsplit/internal/common"
	"github.com/bonsplit/bonsplit/internal/model"
	"github.com/bonsplit/bonsplit/internal/service"
)

// Config holds configuration for the correction oracle.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	RateLimit  int
}

// Corrector implements service.NameCorrector on top of a provider client.
type Corrector struct {
	client      Client
	cache       *correctionCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
	timeout     time.Duration
}

// NewCorrector creates a new oracle-backed name corrector.
func NewCorrector(cfg Config, logger *slog.Logger) (*Corrector, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		client, err = newOpenAIClient(cfg)
	case "lexicon", "offline":
		client = newLexiconClient()
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create oracle client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     timeout,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 500 * time.Millisecond
	}

	return &Corrector{
		client:      client,
		cache:       newCorrectionCache(cfg.CacheTTL),
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		retryOpts:   retryOpts,
		timeout:     timeout,
	}, nil
}

// Correct resolves a garbled product name. The call is bounded by the
// configured timeout; on timeout or provider failure the raw name comes
// back with Accepted=false so the pipeline keeps moving. When the
// provider explicitly cannot resolve the name the sentinel UNRECOGNIZED
// is returned instead of a guess.
func (c *Corrector) Correct(ctx context.Context, req service.CorrectionRequest) (service.CorrectionResult, error) {
	fallback := service.CorrectionResult{CorrectedName: req.RawName, Accepted: false}

	key := strings.ToLower(strings.TrimSpace(req.RawName))
	if key == "" {
		return fallback, nil
	}

	if result, found := c.cache.get(key); found {
		c.logger.Debug("correction cache hit", "raw_name", req.RawName)
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rateLimiter.wait(ctx); err != nil {
		c.logger.Warn("oracle rate limit wait aborted, falling back to raw name",
			"raw_name", req.RawName,
			"error", err)
		return fallback, nil
	}

	prompt := buildCorrectionPrompt(req)

	var response CorrectionResponse
	err := common.WithRetry(ctx, func() error {
		resp, callErr := c.client.CorrectName(ctx, prompt)
		if callErr != nil {
			c.logger.Warn("correction attempt failed",
				"raw_name", req.RawName,
				"error", callErr)
			return &common.RetryableError{Err: callErr, Retryable: true}
		}
		response = resp
		return nil
	}, c.retryOpts)

	if err != nil {
		// Oracle unavailability is recovered locally, never surfaced
		// as a hard failure.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, common.ErrMaxRetries) {
			c.logger.Warn("oracle unavailable, falling back to raw name",
				"raw_name", req.RawName,
				"error", err)
			return fallback, nil
		}
		return fallback, nil
	}

	result := service.CorrectionResult{
		CorrectedName: strings.TrimSpace(response.CorrectedName),
		Accepted:      response.Resolved,
	}
	if !response.Resolved || result.CorrectedName == "" {
		result.CorrectedName = model.Unrecognized
		result.Accepted = true
	}

	c.cache.set(key, result)

	c.logger.Debug("name corrected",
		"raw_name", req.RawName,
		"corrected_name", result.CorrectedName,
		"accepted", result.Accepted)

	return result, nil
}

// Close stops background goroutines and cleans up resources.
func (c *Corrector) Close() error {
	if c.cache != nil {
		c.cache.Close()
	}
	if c.rateLimiter != nil {
		c.rateLimiter.Close()
	}
	return nil
}

// buildCorrectionPrompt creates the prompt for product name correction.
func buildCorrectionPrompt(req service.CorrectionRequest) string {
	details := fmt.Sprintf("Raw name: %s", req.RawName)
	if req.Context != "" {
		details += fmt.Sprintf("\nReceipt context: %s", req.Context)
	}

	return fmt.Sprintf(`You repair OCR-garbled product names from German grocery receipts.

%s

Rules:
1. Reconstruct the intended product name. Partial names with gaps are
   common: "Ap...el" is almost certainly "Apfel", "M..lch" is "Milch".
2. Never invent a price and never include one in the name.
3. If the name is genuinely unreadable, say so instead of guessing.

Respond in this exact format:
NAME: <corrected product name>
RESOLVED: <yes|no>`, details)
}
