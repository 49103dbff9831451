package verification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

const statusTTL = 5 * time.Minute

// CachedProvider fronts an upstream Provider with a redis cache. Lookups for
// the same shopper are collapsed with singleflight, and upstream calls go
// through a circuit breaker so a flapping verification provider degrades to
// cache-or-unverified instead of stalling checkout.
type CachedProvider struct {
	upstream Provider
	client   *redis.Client
	breaker  *gobreaker.CircuitBreaker[domain.VerificationStatus]
	sfg      singleflight.Group
}

func NewCachedProvider(upstream Provider, client *redis.Client) *CachedProvider {
	breaker := gobreaker.NewCircuitBreaker[domain.VerificationStatus](gobreaker.Settings{
		Name:    "verification-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &CachedProvider{
		upstream: upstream,
		client:   client,
		breaker:  breaker,
	}
}

func (p *CachedProvider) Status(ctx context.Context, shopperID string) (domain.VerificationStatus, error) {
	v, err, _ := p.sfg.Do(shopperID, func() (interface{}, error) {
		status, err := p.get(ctx, shopperID)
		if err == nil {
			return status, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("verification cache get error: %v", err)
		}

		status, err = p.breaker.Execute(func() (domain.VerificationStatus, error) {
			return p.upstream.Status(ctx, shopperID)
		})
		if err != nil {
			return domain.VerificationUnverified, fmt.Errorf("verification lookup: %w", err)
		}

		go func() {
			if errSet := p.set(context.Background(), shopperID, status); errSet != nil {
				log.Printf("verification cache set error: %v", errSet)
			}
		}()

		return status, nil
	})
	if err != nil {
		return domain.VerificationUnverified, err
	}
	return v.(domain.VerificationStatus), nil
}

// Invalidate drops the cached status, e.g. after the provider reports a
// verification outcome change.
func (p *CachedProvider) Invalidate(ctx context.Context, shopperID string) error {
	if err := p.client.Del(ctx, cacheKey(shopperID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (p *CachedProvider) get(ctx context.Context, shopperID string) (domain.VerificationStatus, error) {
	data, err := p.client.Get(ctx, cacheKey(shopperID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return domain.VerificationStatus(data), nil
}

func (p *CachedProvider) set(ctx context.Context, shopperID string, status domain.VerificationStatus) error {
	if err := p.client.Set(ctx, cacheKey(shopperID), string(status), statusTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(shopperID string) string {
	return fmt.Sprintf("verification:%s", shopperID)
}
