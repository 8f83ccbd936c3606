// Package router decides how a translation request reaches the model host:
// directly, through the pivot language, or not at all.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/pivotran/internal"
	"github.com/valpere/pivotran/internal/cache"
	"github.com/valpere/pivotran/internal/language"
	"github.com/valpere/pivotran/internal/translator"
)

// ErrNoPath is returned by Route when neither a direct model nor a pivot
// path exists for a pair.
var ErrNoPath = errors.New("no translation path")

const msgNoText = "No text provided"

// Config carries the fixed routing policy. Zero values fall back to the
// built-in language set, pivot and cache size.
type Config struct {
	Languages *language.Set
	Pivot     string
	CacheSize int
}

// Router routes translation requests to the model host.
type Router struct {
	host   translator.ModelHost
	cache  *cache.ExistenceCache
	langs  *language.Set
	pivot  string
	logger *zap.Logger
}

// New creates a Router. The existence cache is created here and lives as
// long as the Router.
func New(host translator.ModelHost, cfg Config, logger *zap.Logger) (*Router, error) {
	if host == nil {
		return nil, fmt.Errorf("model host is required")
	}
	if cfg.Languages == nil {
		cfg.Languages = language.Default()
	}
	if cfg.Pivot == "" {
		cfg.Pivot = language.Pivot
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = cache.DefaultSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := cache.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Router{
		host:   host,
		cache:  c,
		langs:  cfg.Languages,
		pivot:  language.Normalize(cfg.Pivot),
		logger: logger,
	}, nil
}

// Languages returns the set of accepted codes.
func (r *Router) Languages() *language.Set {
	return r.langs
}

func (r *Router) Pivot() string {
	return r.pivot
}

// HasDirectModel answers from the existence cache, asking the model host on
// a miss. Lookup failures are not cached.
func (r *Router) HasDirectModel(ctx context.Context, pair translator.Pair) (bool, error) {
	if exists, ok := r.cache.Get(pair); ok {
		return exists, nil
	}

	exists, err := r.host.Exists(ctx, pair)
	if err != nil {
		return false, err
	}
	r.cache.Add(pair, exists)

	r.logger.Debug("Model existence checked",
		zap.Stringer("pair", pair),
		zap.Bool("exists", exists),
	)
	return exists, nil
}

// Route returns the pairs to run in sequence to get from source to target.
func (r *Router) Route(ctx context.Context, source, target string) ([]translator.Pair, error) {
	direct := translator.Pair{From: source, To: target}

	exists, err := r.HasDirectModel(ctx, direct)
	if err != nil {
		return nil, err
	}
	if exists {
		return []translator.Pair{direct}, nil
	}

	// A pivot side would mean translating through the language itself.
	if source == r.pivot || target == r.pivot {
		return nil, fmt.Errorf("%w for %s -> %s", ErrNoPath, source, target)
	}

	return []translator.Pair{
		{From: source, To: r.pivot},
		{From: r.pivot, To: target},
	}, nil
}

// Translate validates the request, picks a route and runs it. It never
// returns an error: every failure is reported in the result.
func (r *Router) Translate(ctx context.Context, req internal.TranslationRequest) internal.TranslationResult {
	text := strings.TrimSpace(req.Text)
	source := language.Normalize(req.SourceLang)
	target := language.Normalize(req.TargetLang)

	logger := r.logger.With(
		zap.String("request_id", req.ID),
		zap.String("source", source),
		zap.String("target", target),
	)

	if !r.langs.Contains(source) || !r.langs.Contains(target) {
		return internal.Failed("Supported languages: " + r.langs.String())
	}
	if text == "" {
		return internal.Failed(msgNoText)
	}

	route, err := r.Route(ctx, source, target)
	if errors.Is(err, ErrNoPath) {
		logger.Info("No translation path")
		return internal.Failed(fmt.Sprintf("No translation path for %s -> %s", source, target))
	}
	if err != nil {
		logger.Warn("Model lookup failed", zap.Error(err))
		return internal.Failed(err.Error())
	}

	current := text
	for i, step := range route {
		out, err := r.host.Infer(ctx, current, step)
		if err != nil {
			logger.Warn("Inference failed",
				zap.Int("step", i+1),
				zap.Stringer("pair", step),
				zap.Error(err),
			)
			return internal.Failed(err.Error())
		}
		current = out
	}

	logger.Debug("Translated", zap.Int("steps", len(route)))
	return internal.Succeeded(current)
}
