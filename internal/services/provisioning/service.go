package provisioning

//go:generate mockgen -destination=mock/mock_service.go -package=mockprovisioning -source=service.go

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
	"github.com/KirkDiggler/bot-stage/internal/metrics"
)

// preloadConcurrency bounds parallel fetches during Preload
const preloadConcurrency = 4

// Service provides character templates and instances
type Service interface {
	// LoadBaseTemplate loads the shared template and its clip files. It runs
	// once; later calls return the first result. On failure every later
	// instance is procedural.
	LoadBaseTemplate(ctx context.Context) error

	// BaseTemplate returns the shared template, nil until loaded or after a
	// failed load
	BaseTemplate() *embodiment.Template

	// UsingFallback reports whether characters must use procedural geometry
	UsingFallback() bool

	// LoadCustom returns the template for url, loading it at most once no
	// matter how many callers ask concurrently
	LoadCustom(ctx context.Context, url string) (*embodiment.Template, error)

	// Preload warms the custom cache for urls
	Preload(ctx context.Context, urls []string) error

	// Instantiate clones t for one character at the requested height
	Instantiate(t *embodiment.Template, kind embodiment.Kind, height float64) (*embodiment.Instance, error)

	// Procedural builds fallback geometry at the requested height
	Procedural(height float64) *embodiment.Instance

	// Stats reports cache state
	Stats() Stats
}

// Stats is a snapshot of the provisioning caches
type Stats struct {
	CustomTemplates int      `json:"custom_templates"`
	Waiting         int      `json:"waiting"`
	Fallback        bool     `json:"fallback"`
	BaseClips       []string `json:"base_clips"`
}

type service struct {
	loader    Loader
	baseURL   string
	baseClips map[string]string
	bounds    embodiment.Bounds
	metrics   *metrics.Collectors
	logger    *slog.Logger
	baseOnce  sync.Once
	baseErr   error
	mu        sync.RWMutex
	base      *embodiment.Template
	fallback  bool
	custom    map[string]*embodiment.Template
	group     singleflight.Group
	waiting   atomic.Int32
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Loader Loader // Required

	// BaseModelURL is the shared humanoid; empty means procedural only
	BaseModelURL string
	// BaseClips maps clip ID to a clip file whose first animation supplies
	// that clip
	BaseClips map[string]string

	Bounds  *embodiment.Bounds
	Metrics *metrics.Collectors
	Logger  *slog.Logger
}

// NewService creates a new provisioning service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil || cfg.Loader == nil {
		panic("loader is required")
	}

	bounds := embodiment.DefaultBounds()
	if cfg.Bounds != nil {
		bounds = *cfg.Bounds
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		loader:    cfg.Loader,
		baseURL:   cfg.BaseModelURL,
		baseClips: cfg.BaseClips,
		bounds:    bounds,
		metrics:   cfg.Metrics,
		logger:    logger,
		custom:    make(map[string]*embodiment.Template),
	}
}

func (s *service) LoadBaseTemplate(ctx context.Context) error {
	s.baseOnce.Do(func() {
		s.baseErr = s.loadBase(ctx)
	})
	return s.baseErr
}

func (s *service) loadBase(ctx context.Context) error {
	if s.baseURL == "" {
		s.logger.Info("no base model configured, using procedural characters")
		s.setFallback()
		return nil
	}

	var (
		base  *embodiment.Template
		clips = make(map[string]*embodiment.Clip, len(s.baseClips))
		mu    sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		t, err := s.loader.Load(gctx, s.baseURL)
		s.metrics.ObserveLoad("base", time.Since(start), err)
		if err != nil {
			return apperr.Wrap(err, "load base model").WithMeta("url", s.baseURL)
		}
		base = t
		return nil
	})

	for id, url := range s.baseClips {
		g.Go(func() error {
			start := time.Now()
			t, err := s.loader.Load(gctx, url)
			s.metrics.ObserveLoad("clip", time.Since(start), err)
			if err != nil {
				s.logger.Warn("base clip failed to load", "clip", id, "url", url, "error", err)
				return nil
			}
			if len(t.SourceClips) == 0 {
				s.logger.Warn("base clip file has no animations", "clip", id, "url", url)
				return nil
			}

			src := t.SourceClips[0]
			mu.Lock()
			clips[id] = &embodiment.Clip{ID: id, SourceName: src.SourceName, Duration: src.Duration}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn("base model failed, falling back to procedural characters", "error", err)
		s.setFallback()
		return err
	}

	if base.ReferenceHeight < embodiment.DegenerateHeight {
		err := apperr.Newf(apperr.CodeDegenerateGeometry, "base model %s has no measurable height", s.baseURL)
		s.logger.Warn("base model unusable, falling back to procedural characters", "error", err)
		s.setFallback()
		return err
	}

	// clip files replace embedded clips of the same ID
	if len(clips) > 0 {
		merged := make(map[string]*embodiment.Clip, len(base.Clips)+len(clips))
		for id, c := range base.Clips {
			merged[id] = c
		}
		for id, c := range clips {
			merged[id] = c
		}
		base.Clips = merged
	}

	s.mu.Lock()
	s.base = base
	s.mu.Unlock()

	s.logger.Info("base template loaded",
		"url", s.baseURL,
		"height", base.ReferenceHeight,
		"skinned", base.Skinned,
		"clips", len(base.Clips))

	return nil
}

func (s *service) setFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = true
	s.base = nil
}

func (s *service) BaseTemplate() *embodiment.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

func (s *service) UsingFallback() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fallback
}

func (s *service) cached(url string) *embodiment.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom[url]
}

func (s *service) LoadCustom(ctx context.Context, url string) (*embodiment.Template, error) {
	if url == "" {
		return nil, apperr.InvalidArgument("custom model URL is required")
	}

	if t := s.cached(url); t != nil {
		s.logger.Debug("custom template cache hit", "url", url)
		return t, nil
	}

	s.waiting.Add(1)
	defer s.waiting.Add(-1)

	// a shared load is not tied to any one waiter's cancellation
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(url, func() (any, error) {
		if t := s.cached(url); t != nil {
			return t, nil
		}

		start := time.Now()
		t, err := s.loader.Load(loadCtx, url)
		s.metrics.ObserveLoad("custom", time.Since(start), err)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.custom[url] = t
		n := len(s.custom)
		s.mu.Unlock()

		s.metrics.SetCachedTemplates(n)
		s.logger.Info("custom template loaded", "url", url, "height", t.ReferenceHeight, "clips", len(t.Clips))
		return t, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, apperr.Wrap(res.Err, "load custom model").WithMeta("url", url)
		}
		return res.Val.(*embodiment.Template), nil
	case <-ctx.Done():
		return nil, apperr.WrapWithCode(ctx.Err(), apperr.CodeUnavailable, "wait for custom model")
	}
}

func (s *service) Preload(ctx context.Context, urls []string) error {
	seen := make(map[string]bool, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)

	for _, url := range urls {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true

		g.Go(func() error {
			_, err := s.LoadCustom(gctx, url)
			return err
		})
	}

	return g.Wait()
}

func (s *service) Instantiate(t *embodiment.Template, kind embodiment.Kind, height float64) (*embodiment.Instance, error) {
	return embodiment.Instantiate(t, kind, height, s.bounds)
}

func (s *service) Procedural(height float64) *embodiment.Instance {
	return embodiment.Procedural(height, s.bounds)
}

func (s *service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		CustomTemplates: len(s.custom),
		Waiting:         int(s.waiting.Load()),
		Fallback:        s.fallback,
	}
	if s.base != nil {
		st.BaseClips = s.base.ClipIDs()
		sort.Strings(st.BaseClips)
	}
	return st
}
