package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/darasa/darasa/core/batch"
)

type BatchRepo struct {
	mu      sync.RWMutex
	batches map[string]batch.Batch
}

var _ batch.Repository = (*BatchRepo)(nil)

func NewBatchRepo() *BatchRepo {
	return &BatchRepo{batches: make(map[string]batch.Batch)}
}

func (r *BatchRepo) CreateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = newID()
	}
	r.batches[b.ID] = b
	return b, nil
}

func (r *BatchRepo) GetBatchByID(ctx context.Context, schoolID, id string) (batch.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.batches[id]
	if !ok || b.SchoolID != schoolID {
		return batch.Batch{}, batch.ErrNotFound
	}
	return b, nil
}

func (r *BatchRepo) GetBatchesByID(ctx context.Context, schoolID string, ids []string) ([]batch.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	batches := make([]batch.Batch, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.batches[id]; ok && b.SchoolID == schoolID {
			batches = append(batches, b)
		}
	}
	return batches, nil
}

func (r *BatchRepo) QueryBatches(ctx context.Context, schoolID string) ([]batch.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var batches []batch.Batch
	for _, b := range r.batches {
		if b.SchoolID == schoolID {
			batches = append(batches, b)
		}
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Name < batches[j].Name })
	return batches, nil
}

func (r *BatchRepo) UpdateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.batches[b.ID]; !ok {
		return batch.Batch{}, batch.ErrNotFound
	}
	r.batches[b.ID] = b
	return b, nil
}

func (r *BatchRepo) DeleteBatch(ctx context.Context, schoolID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.batches[id]; !ok || b.SchoolID != schoolID {
		return batch.ErrNotFound
	}
	delete(r.batches, id)
	return nil
}
