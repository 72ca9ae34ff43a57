package state

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackwright/pkg/cache"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/settings"
)

// Store keeps states by part and instance name.
type Store interface {
	// Load returns the state, or a NOT_FOUND error.
	Load(ctx context.Context, part, instance string) (State, error)
	// Save writes s under its part and the instance name.
	Save(ctx context.Context, instance string, s State) error
	// Delete removes a state; a missing state is not an error.
	Delete(ctx context.Context, part, instance string) error
	Close() error
}

// CacheStore keeps msgpack-encoded states in a cache.Cache.
type CacheStore struct {
	cache cache.Cache
	keys  cache.Keyer
	ttl   time.Duration
}

// NewCacheStore wraps c. A nil keyer uses the default keys; a zero ttl keeps
// states forever.
func NewCacheStore(c cache.Cache, keys cache.Keyer, ttl time.Duration) *CacheStore {
	if keys == nil {
		keys = cache.NewDefaultKeyer()
	}
	return &CacheStore{cache: c, keys: keys, ttl: ttl}
}

// Load reads a state.
func (s *CacheStore) Load(ctx context.Context, part, instance string) (State, error) {
	data, hit, err := s.cache.Get(ctx, s.keys.StateKey(part, instance))
	if err != nil {
		return State{}, err
	}
	if !hit {
		return State{}, errors.Wrap(errors.ErrCodeNotFound, cache.ErrNotFound, "no state for %s/%s", part, instance)
	}
	return Unmarshal(data, FormatMsgpack)
}

// Save writes a state.
func (s *CacheStore) Save(ctx context.Context, instance string, st State) error {
	if err := errors.ValidateName("instance", instance); err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}
	data, err := Marshal(st, FormatMsgpack)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.keys.StateKey(st.Part, instance), data, s.ttl)
}

// Delete removes a state.
func (s *CacheStore) Delete(ctx context.Context, part, instance string) error {
	return s.cache.Delete(ctx, s.keys.StateKey(part, instance))
}

// Close closes the underlying cache.
func (s *CacheStore) Close() error { return s.cache.Close() }

var _ Store = (*CacheStore)(nil)

// Open builds the store selected by cfg. defaultDir is used by the file
// backend when cfg.Dir is empty.
func Open(ctx context.Context, cfg settings.Store, defaultDir string, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	switch cfg.Backend {
	case settings.BackendNone:
		return NewCacheStore(cache.NewNullCache(), nil, 0), nil
	case settings.BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			dir = defaultDir
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		logger.Debug("Using file state store", "dir", dir)
		return NewCacheStore(c, nil, cfg.TTL.Duration), nil
	case settings.BackendRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("Using redis state store", "addr", cfg.RedisAddr)
		return NewCacheStore(c, nil, cfg.TTL.Duration), nil
	case settings.BackendMongo:
		logger.Debug("Using mongo state store", "database", cfg.MongoDatabase)
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown store backend %q", cfg.Backend)
}
