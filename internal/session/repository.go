package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"library-assessment/internal/metrics"
	"library-assessment/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// Hydrator fills a new session, typically from the latest stored snapshots
type Hydrator func(ctx context.Context, s *Session) error

type RepositoryConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	Hydrate         Hydrator
	Recorder        metrics.Recorder
	Catalogs        *model.Catalogs // built-in catalogs when nil
	SessionOptions  []Option
}

// Repository keeps sessions in memory, expiring idle ones
type Repository struct {
	cache    *cache.Cache
	hydrate  Hydrator
	recorder metrics.Recorder
	catalogs model.Catalogs
	options  []Option
}

func NewRepository(cfg RepositoryConfig) *Repository {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Nop{}
	}
	catalogs := model.DefaultCatalogs()
	if cfg.Catalogs != nil {
		catalogs = *cfg.Catalogs
	}

	r := &Repository{
		cache:    cache.New(cfg.TTL, cfg.CleanupInterval),
		hydrate:  cfg.Hydrate,
		recorder: cfg.Recorder,
		catalogs: catalogs,
		options:  append([]Option{WithRecorder(cfg.Recorder), WithCatalogs(catalogs)}, cfg.SessionOptions...),
	}
	r.cache.OnEvicted(func(string, interface{}) {
		r.recorder.SessionsActive(r.cache.ItemCount())
	})
	return r
}

// Create starts a session with a fresh id and hydrates it
func (r *Repository) Create(ctx context.Context) (*Session, error) {
	s := New(uuid.NewString(), r.options...)
	if r.hydrate != nil {
		if err := r.hydrate(ctx, s); err != nil {
			return nil, fmt.Errorf("failed to hydrate session: %w", err)
		}
	}
	r.cache.Set(s.ID(), s, cache.DefaultExpiration)
	r.recorder.SessionsActive(r.cache.ItemCount())
	return s, nil
}

// Get returns a live session and extends its lifetime
func (r *Repository) Get(id string) (*Session, error) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s := x.(*Session)
	r.cache.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

func (r *Repository) Delete(id string) error {
	if _, found := r.cache.Get(id); !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	r.cache.Delete(id)
	return nil
}

// Catalogs returns the sub-dimension catalogs handed to new sessions
func (r *Repository) Catalogs() model.Catalogs {
	return r.catalogs
}

// Len counts the held sessions, expired ones included until the janitor runs
func (r *Repository) Len() int {
	return r.cache.ItemCount()
}
