// Package suggest proposes key results for new objectives via an
// external service, fronted by a small in-process cache.
package suggest

import (
	"context"
	"log/slog"
)

// Service combines the cache and the upstream client. The cache is
// constructed once per process in main and shared by reference.
type Service struct {
	cache  *Cache
	client *Client
	logger *slog.Logger
}

func NewService(cache *Cache, client *Client, logger *slog.Logger) *Service {
	return &Service{cache: cache, client: client, logger: logger}
}

func (s *Service) Enabled() bool {
	return s.client.Enabled()
}

// Suggest returns cached suggestions when fresh, otherwise fetches and
// caches the upstream response.
func (s *Service) Suggest(ctx context.Context, title, category string, existing []string) ([]Suggestion, error) {
	key := CacheKey(title, category, existing)

	if suggestions, ok := s.cache.Get(key); ok {
		return suggestions, nil
	}

	suggestions, err := s.client.Fetch(ctx, title, category, existing)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, suggestions)
	s.logger.Debug("cached suggestions", "key", key, "count", len(suggestions))
	return suggestions, nil
}
