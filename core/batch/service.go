package batch

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("batch not found")
)

type (
	Repository interface {
		CreateBatch(ctx context.Context, b Batch) (Batch, error)
		GetBatchByID(ctx context.Context, schoolID, id string) (Batch, error)
		// GetBatchesByID resolves several batches at once; unknown IDs are skipped.
		GetBatchesByID(ctx context.Context, schoolID string, ids []string) ([]Batch, error)
		QueryBatches(ctx context.Context, schoolID string) ([]Batch, error)
		UpdateBatch(ctx context.Context, b Batch) (Batch, error)
		DeleteBatch(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, schoolID string, nb NewBatch) (Batch, error) {
	now := time.Now().UTC()
	b := Batch{
		SchoolID:   schoolID,
		Name:       nb.Name,
		DaysOfWeek: weekdays(nb.DaysOfWeek),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.EntryTime, _ = core.ParseClockTime(nb.EntryTime)
	b.ExitTime, _ = core.ParseClockTime(nb.ExitTime)
	return svc.repo.CreateBatch(ctx, b)
}

func (svc *Service) GetByID(ctx context.Context, schoolID, id string) (Batch, error) {
	return svc.repo.GetBatchByID(ctx, schoolID, id)
}

func (svc *Service) GetByIDs(ctx context.Context, schoolID string, ids []string) ([]Batch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return svc.repo.GetBatchesByID(ctx, schoolID, ids)
}

func (svc *Service) Query(ctx context.Context, schoolID string) ([]Batch, error) {
	return svc.repo.QueryBatches(ctx, schoolID)
}

func (svc *Service) Update(ctx context.Context, schoolID, id string, ub UpdateBatch) (Batch, error) {
	b, err := svc.repo.GetBatchByID(ctx, schoolID, id)
	if err != nil {
		return Batch{}, err
	}
	b.Name = ub.Name
	if ub.EntryTime != "" {
		b.EntryTime, _ = core.ParseClockTime(ub.EntryTime)
	}
	if ub.ExitTime != "" {
		b.ExitTime, _ = core.ParseClockTime(ub.ExitTime)
	}
	if ub.DaysOfWeek != nil {
		b.DaysOfWeek = weekdays(ub.DaysOfWeek)
	}
	b.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateBatch(ctx, b)
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteBatch(ctx, schoolID, id)
}
