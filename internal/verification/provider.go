package verification

import (
	"context"
	"sync"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

// Provider is the external identity-verification collaborator. Unknown
// shoppers resolve to unverified; verification state is never mutated here.
type Provider interface {
	Status(ctx context.Context, shopperID string) (domain.VerificationStatus, error)
}

// MemoryProvider implements Provider with in-memory storage.
type MemoryProvider struct {
	mu       sync.RWMutex
	statuses map[string]domain.VerificationStatus
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{statuses: make(map[string]domain.VerificationStatus)}
}

func (p *MemoryProvider) SetStatus(shopperID string, status domain.VerificationStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.statuses[shopperID] = status
}

func (p *MemoryProvider) Status(_ context.Context, shopperID string) (domain.VerificationStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status, ok := p.statuses[shopperID]
	if !ok {
		return domain.VerificationUnverified, nil
	}
	return status, nil
}
