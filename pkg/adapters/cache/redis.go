// Package cache puts a Redis cache-aside layer in front of link lookups.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/deadline"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/logging"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

const keyPrefix = "link:"

// LinkCache decorates a LinkRepository. Only FindLink reads the cache; writes
// refresh it. Cache failures degrade to the underlying repository.
//
// Each decorated call shares a single deadline between redis and the store.
// A redis call gets at most a quarter of it.
type LinkCache struct {
	ports.LinkRepository

	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

func NewLinkCache(repo ports.LinkRepository, client *redis.Client, ttl, timeout time.Duration, logger *slog.Logger) *LinkCache {
	if timeout <= 0 {
		timeout = deadline.DefaultTimeout
	}
	return &LinkCache{
		LinkRepository: repo,
		client:         client,
		ttl:            ttl,
		timeout:        timeout,
		logger:         logger,
	}
}

func (c *LinkCache) FindLink(ctx context.Context, id string) (*domain.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target, err := deadline.Run(ctx, c.cacheTimeout(), "cache get", func(ctx context.Context) (string, error) {
		return c.client.Get(ctx, keyPrefix+id).Result()
	})
	switch {
	case err == nil:
		return &domain.Link{ID: id, TargetURL: target}, nil
	case errors.Is(err, redis.Nil):
	default:
		logging.FromContext(ctx, c.logger).Warn("link cache read failed", "link_id", id, "error", err)
	}

	link, err := c.LinkRepository.FindLink(ctx, id)
	if err != nil || link == nil {
		return link, err
	}
	c.store(ctx, link)
	return link, nil
}

func (c *LinkCache) InsertLink(ctx context.Context, id, targetURL string) (*domain.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	link, err := c.LinkRepository.InsertLink(ctx, id, targetURL)
	if err != nil {
		return nil, err
	}
	c.store(ctx, link)
	return link, nil
}

func (c *LinkCache) UpdateLink(ctx context.Context, id, targetURL string) (*domain.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	link, err := c.LinkRepository.UpdateLink(ctx, id, targetURL)
	if err != nil {
		return nil, err
	}
	c.store(ctx, link)
	return link, nil
}

func (c *LinkCache) Close() error {
	return errors.Join(c.client.Close(), c.LinkRepository.Close())
}

func (c *LinkCache) cacheTimeout() time.Duration {
	return c.timeout / 4
}

// store writes link to the cache within what is left of ctx's deadline.
func (c *LinkCache) store(ctx context.Context, link *domain.Link) {
	err := deadline.Exec(ctx, c.cacheTimeout(), "cache set", func(ctx context.Context) error {
		return c.client.Set(ctx, keyPrefix+link.ID, link.TargetURL, c.ttl).Err()
	})
	if err == nil {
		return
	}

	// A stale entry could outlive an update; try to drop it.
	delErr := deadline.Exec(ctx, c.cacheTimeout(), "cache del", func(ctx context.Context) error {
		return c.client.Del(ctx, keyPrefix+link.ID).Err()
	})
	logging.FromContext(ctx, c.logger).Warn("link cache write failed",
		"link_id", link.ID,
		"error", errors.Join(err, delErr))
}

var _ ports.LinkRepository = (*LinkCache)(nil)
