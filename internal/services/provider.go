package services

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/bot-stage/internal/clients/modelstore"
	"github.com/KirkDiggler/bot-stage/internal/config"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
	"github.com/KirkDiggler/bot-stage/internal/events"
	"github.com/KirkDiggler/bot-stage/internal/metrics"
	"github.com/KirkDiggler/bot-stage/internal/movement"
	"github.com/KirkDiggler/bot-stage/internal/placement"
	"github.com/KirkDiggler/bot-stage/internal/repositories/blobcache"
	"github.com/KirkDiggler/bot-stage/internal/services/provisioning"
	"github.com/KirkDiggler/bot-stage/internal/services/roster"
	"github.com/KirkDiggler/bot-stage/internal/services/stage"
)

// Provider holds all service instances
type Provider struct {
	Bus                 *events.Bus
	Metrics             *metrics.Collectors
	Layout              *placement.Layout
	ProvisioningService provisioning.Service
	StageService        stage.Service
	RosterService       roster.Service

	redis redis.UniversalClient
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	Config *config.Config // Required

	// Layout defaults to the built-in stage layout
	Layout *placement.Layout
	// Cache overrides the blob cache chosen from Config.Redis
	Cache    blobcache.Repository
	Registry prometheus.Registerer
	Scene    stage.Scene
	Logger   *slog.Logger
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) (*Provider, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, apperr.InvalidArgument("config is required")
	}
	c := cfg.Config

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	layout := cfg.Layout
	if layout == nil {
		layout = placement.DefaultLayout()
	}

	p := &Provider{Layout: layout}

	cache := cfg.Cache
	if cache == nil {
		var err error
		cache, err = p.blobCache(c.Redis)
		if err != nil {
			return nil, err
		}
	}

	store, err := modelstore.New(&modelstore.Config{
		Timeout:  c.Models.FetchTimeout,
		MaxBytes: c.Models.MaxModelSize,
		Cache:    cache,
		Logger:   logger.With("component", "modelstore"),
	})
	if err != nil {
		return nil, err
	}

	p.Bus = events.NewBus(logger.With("component", "events"))
	p.Bus.SubscribeAll(events.NewLogListener(logger.With("component", "events")))

	if cfg.Registry != nil {
		p.Metrics = metrics.New(cfg.Registry)
		p.Bus.SubscribeAll(p.Metrics)
	}

	bounds := embodiment.Bounds{
		MinHeight: c.Avatar.MinHeight,
		MaxHeight: c.Avatar.MaxHeight,
		MinScale:  c.Avatar.MinScale,
		MaxScale:  c.Avatar.MaxScale,
	}

	p.ProvisioningService = provisioning.NewService(&provisioning.ServiceConfig{
		Loader: provisioning.NewGLTFLoader(&provisioning.GLTFLoaderConfig{
			Client:   store,
			Keywords: layout.Clips,
			Logger:   logger.With("component", "gltf"),
		}),
		BaseModelURL: c.Models.BaseModelURL,
		BaseClips:    c.Models.BaseClips,
		Bounds:       &bounds,
		Metrics:      p.Metrics,
		Logger:       logger.With("component", "provisioning"),
	})

	crossfade := c.Avatar.CrossfadeSeconds
	p.StageService = stage.NewService(&stage.ServiceConfig{
		Provisioning: p.ProvisioningService,
		Placement:    layout,
		Scene:        cfg.Scene,
		Bus:          p.Bus,
		Metrics:      p.Metrics,
		Logger:       logger.With("component", "stage"),
		Movement: &movement.Config{
			Speed:   c.Avatar.WalkSpeed,
			Epsilon: c.Avatar.ArrivalEpsilon,
		},
		Drama: &stage.Drama{
			StrikeThreshold:        c.Drama.StrikeThreshold,
			MaxWait:                c.Drama.MaxWait,
			RecoverDelay:           c.Drama.RecoverDelay,
			CancelStrikeOnReassign: c.Drama.CancelStrikeOnReassign,
		},
		CrossfadeSeconds: &crossfade,
		DefaultHeight:    c.Avatar.DefaultHeight,
		GatheringRadius:  c.Layout.GatheringRadius,
	})

	p.RosterService = roster.NewService(&roster.ServiceConfig{
		Stage:        p.StageService,
		Provisioning: p.ProvisioningService,
		Logger:       logger.With("component", "roster"),
	})

	return p, nil
}

// blobCache picks Redis when a URL is configured and process memory otherwise
func (p *Provider) blobCache(cfg config.RedisConfig) (blobcache.Repository, error) {
	if cfg.URL == "" {
		return blobcache.NewInMemoryRepository(&blobcache.InMemoryConfig{TTL: cfg.BlobTTL}), nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeInvalidArgument, "parse redis url")
	}

	client := redis.NewClient(opts)
	p.redis = client
	return blobcache.NewRedisRepository(&blobcache.RedisConfig{Client: client, TTL: cfg.BlobTTL})
}

// Ping checks the shared cache, when there is one
func (p *Provider) Ping(ctx context.Context) error {
	if p.redis == nil {
		return nil
	}
	return p.redis.Ping(ctx).Err()
}

// Close releases the Redis connection, if any
func (p *Provider) Close() error {
	if p.redis == nil {
		return nil
	}
	return p.redis.Close()
}
