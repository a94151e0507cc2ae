package gatekeeper

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("gatekeeper not found")
)

type (
	Repository interface {
		CreateGatekeeper(ctx context.Context, g Gatekeeper) (Gatekeeper, error)
		GetGatekeeperByID(ctx context.Context, schoolID, id string) (Gatekeeper, error)
		GetGatekeeperByAccount(ctx context.Context, accountID string) (Gatekeeper, error)
		QueryGatekeepers(ctx context.Context, schoolID string) ([]Gatekeeper, error)
		UpdateGatekeeper(ctx context.Context, g Gatekeeper) (Gatekeeper, error)
		DeleteGatekeeper(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, schoolID string, ng NewGatekeeper) (Gatekeeper, error) {
	now := time.Now().UTC()
	g := Gatekeeper{
		SchoolID:     schoolID,
		AccountID:    ng.AccountID,
		GatekeeperID: ng.GatekeeperID,
		FullName:     ng.FullName,
		GateNumber:   ng.GateNumber,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	g.ShiftStart, _ = core.ParseClockTime(ng.ShiftStart)
	g.ShiftEnd, _ = core.ParseClockTime(ng.ShiftEnd)
	return svc.repo.CreateGatekeeper(ctx, g)
}

func (svc *Service) GetByID(ctx context.Context, schoolID, id string) (Gatekeeper, error) {
	return svc.repo.GetGatekeeperByID(ctx, schoolID, id)
}

// GetByAccount resolves the gatekeeper profile for a logged-in account;
// this is the server-side replacement for the old locally persisted session blob.
func (svc *Service) GetByAccount(ctx context.Context, accountID string) (Gatekeeper, error) {
	return svc.repo.GetGatekeeperByAccount(ctx, accountID)
}

func (svc *Service) Query(ctx context.Context, schoolID string) ([]Gatekeeper, error) {
	return svc.repo.QueryGatekeepers(ctx, schoolID)
}

func (svc *Service) Update(ctx context.Context, schoolID, id string, ug UpdateGatekeeper) (Gatekeeper, error) {
	g, err := svc.repo.GetGatekeeperByID(ctx, schoolID, id)
	if err != nil {
		return Gatekeeper{}, err
	}
	g.FullName = ug.FullName
	if ug.ShiftStart != "" {
		g.ShiftStart, _ = core.ParseClockTime(ug.ShiftStart)
	}
	if ug.ShiftEnd != "" {
		g.ShiftEnd, _ = core.ParseClockTime(ug.ShiftEnd)
	}
	if ug.GateNumber != 0 {
		g.GateNumber = ug.GateNumber
	}
	if ug.Status != "" {
		g.Status = ug.Status
	}
	g.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGatekeeper(ctx, g)
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteGatekeeper(ctx, schoolID, id)
}
