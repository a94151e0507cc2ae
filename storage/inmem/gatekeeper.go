package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/darasa/darasa/core/gatekeeper"
)

type GatekeeperRepo struct {
	mu          sync.RWMutex
	gatekeepers map[string]gatekeeper.Gatekeeper
}

var _ gatekeeper.Repository = (*GatekeeperRepo)(nil)

func NewGatekeeperRepo() *GatekeeperRepo {
	return &GatekeeperRepo{gatekeepers: make(map[string]gatekeeper.Gatekeeper)}
}

func (r *GatekeeperRepo) CreateGatekeeper(ctx context.Context, g gatekeeper.Gatekeeper) (gatekeeper.Gatekeeper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		g.ID = newID()
	}
	r.gatekeepers[g.ID] = g
	return g, nil
}

func (r *GatekeeperRepo) GetGatekeeperByID(ctx context.Context, schoolID, id string) (gatekeeper.Gatekeeper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.gatekeepers[id]
	if !ok || g.SchoolID != schoolID {
		return gatekeeper.Gatekeeper{}, gatekeeper.ErrNotFound
	}
	return g, nil
}

func (r *GatekeeperRepo) GetGatekeeperByAccount(ctx context.Context, accountID string) (gatekeeper.Gatekeeper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.gatekeepers {
		if g.AccountID == accountID {
			return g, nil
		}
	}
	return gatekeeper.Gatekeeper{}, gatekeeper.ErrNotFound
}

func (r *GatekeeperRepo) QueryGatekeepers(ctx context.Context, schoolID string) ([]gatekeeper.Gatekeeper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var gatekeepers []gatekeeper.Gatekeeper
	for _, g := range r.gatekeepers {
		if g.SchoolID == schoolID {
			gatekeepers = append(gatekeepers, g)
		}
	}
	sort.Slice(gatekeepers, func(i, j int) bool {
		return gatekeepers[i].GatekeeperID < gatekeepers[j].GatekeeperID
	})
	return gatekeepers, nil
}

func (r *GatekeeperRepo) UpdateGatekeeper(ctx context.Context, g gatekeeper.Gatekeeper) (gatekeeper.Gatekeeper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.gatekeepers[g.ID]; !ok {
		return gatekeeper.Gatekeeper{}, gatekeeper.ErrNotFound
	}
	r.gatekeepers[g.ID] = g
	return g, nil
}

func (r *GatekeeperRepo) DeleteGatekeeper(ctx context.Context, schoolID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gatekeepers[id]; !ok || g.SchoolID != schoolID {
		return gatekeeper.ErrNotFound
	}
	delete(r.gatekeepers, id)
	return nil
}
