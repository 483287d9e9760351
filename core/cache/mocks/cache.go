package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// Cache is a testify mock of cache.Cache.
type Cache struct {
	mock.Mock
}

func (m *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key, dst)
	return args.Bool(0), args.Error(1)
}

func (m *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	args := m.Called(ctx, key, v, ttl)
	return args.Error(0)
}

func (m *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}
