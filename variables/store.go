package variables

import (
	"context"
	stderrors "errors"
	"maps"
	"os"
	"strings"
	"sync"

	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/redis"
	"github.com/kbukum/spindle/util"
)

// Store reads and writes named variables. Get returns an AppError with
// code VARIABLE_MISSING when the variable is not set.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates a MemoryStore seeded with a copy of values.
func NewMemoryStore(values map[string]string) *MemoryStore {
	m := make(map[string]string, len(values))
	maps.Copy(m, values)
	return &MemoryStore{values: m}
}

func (s *MemoryStore) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	if !ok {
		return "", errors.VariableMissing(name)
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

// EnvPrefix is prepended to the upper-cased variable name by EnvStore.
const EnvPrefix = "SPINDLE_VAR_"

// EnvStore reads variables from the environment. Values written with Set
// shadow the environment for the life of the process.
type EnvStore struct {
	overrides *MemoryStore
	lookup    func(string) (string, bool)
}

// NewEnvStore creates an EnvStore over the process environment.
func NewEnvStore() *EnvStore {
	return &EnvStore{overrides: NewMemoryStore(nil), lookup: os.LookupEnv}
}

func (s *EnvStore) Get(ctx context.Context, name string) (string, error) {
	if v, err := s.overrides.Get(ctx, name); err == nil {
		return v, nil
	}
	v, ok := s.lookup(EnvPrefix + strings.ToUpper(name))
	if !ok {
		return "", errors.VariableMissing(name)
	}
	return util.SanitizeEnvValue(v), nil
}

func (s *EnvStore) Set(ctx context.Context, name, value string) error {
	return s.overrides.Set(ctx, name, value)
}

// RedisStore keeps variables in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore over an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	v, err := s.client.Get(ctx, name)
	if stderrors.Is(err, redis.ErrNotFound) {
		return "", errors.VariableMissing(name)
	}
	if err != nil {
		return "", errors.ExternalServiceError("redis", err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, name, value string) error {
	if err := s.client.Set(ctx, name, value); err != nil {
		return errors.ExternalServiceError("redis", err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*EnvStore)(nil)
	_ Store = (*RedisStore)(nil)
)
