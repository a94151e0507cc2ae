package school_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/school"
	emailsvc "github.com/darasa/darasa/services/email"
	"github.com/darasa/darasa/storage/inmem"
)

// flakySubscriptionRepo fails subscription patches on demand; everything else
// hits the in-memory repo.
type flakySubscriptionRepo struct {
	*inmem.SchoolRepo
	patchErr error
}

func (r *flakySubscriptionRepo) UpdateSubscription(ctx context.Context, id, status, planType string, expiresAt time.Time) error {
	if r.patchErr != nil {
		return r.patchErr
	}
	return r.SchoolRepo.UpdateSubscription(ctx, id, status, planType, expiresAt)
}

func newRefreshFixture(t *testing.T) (*school.Service, *flakySubscriptionRepo, school.School) {
	t.Helper()

	repo := &flakySubscriptionRepo{SchoolRepo: inmem.NewSchoolRepo()}
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))
	svc := school.NewService(repo, emailsvc.NewConsoleServiceMock(), logger)

	sch, err := repo.CreateSchool(context.Background(), school.School{
		Name:               "Lapsed High",
		InstituteType:      school.TypeSchool,
		SubscriptionStatus: school.SubTrial,
		PlanType:           school.PlanTrial,
		TrialEndsAt:        time.Now().UTC().AddDate(0, 0, -1),
	})
	if err != nil {
		t.Fatalf("creating school: %v", err)
	}
	return svc, repo, sch
}

func TestRefreshPatchesLapsedTrial(t *testing.T) {
	svc, repo, sch := newRefreshFixture(t)
	ctx := context.Background()

	got := svc.Refresh(ctx, sch, time.Now().UTC())
	if got.SubscriptionStatus != school.SubExpired {
		t.Fatalf("status = %s; want %s", got.SubscriptionStatus, school.SubExpired)
	}

	// the stored row was patched too
	stored, err := repo.GetSchoolByID(ctx, sch.ID)
	if err != nil {
		t.Fatalf("reloading school: %v", err)
	}
	if stored.SubscriptionStatus != school.SubExpired {
		t.Errorf("stored status = %s; want %s", stored.SubscriptionStatus, school.SubExpired)
	}
}

func TestRefreshExpiredEvenWhenPatchFails(t *testing.T) {
	svc, repo, sch := newRefreshFixture(t)
	ctx := context.Background()

	repo.patchErr = errors.New("connection reset")

	// the derived state is authoritative: a broken patch must not let a
	// lapsed trial through
	got := svc.Refresh(ctx, sch, time.Now().UTC())
	if got.SubscriptionStatus != school.SubExpired {
		t.Fatalf("status = %s; want %s despite failed patch", got.SubscriptionStatus, school.SubExpired)
	}

	// the stored row still lags behind
	stored, err := repo.GetSchoolByID(ctx, sch.ID)
	if err != nil {
		t.Fatalf("reloading school: %v", err)
	}
	if stored.SubscriptionStatus != school.SubTrial {
		t.Errorf("stored status = %s; want %s (patch failed)", stored.SubscriptionStatus, school.SubTrial)
	}
}

func TestRefreshLeavesCurrentSubscriptionAlone(t *testing.T) {
	svc, repo, _ := newRefreshFixture(t)
	ctx := context.Background()

	sch, err := repo.CreateSchool(ctx, school.School{
		Name:                  "Paid High",
		InstituteType:         school.TypeSchool,
		SubscriptionStatus:    school.SubActive,
		PlanType:              school.PlanRegular,
		SubscriptionExpiresAt: time.Now().UTC().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("creating school: %v", err)
	}

	repo.patchErr = errors.New("must not be called")
	got := svc.Refresh(ctx, sch, time.Now().UTC())
	if got.SubscriptionStatus != school.SubActive {
		t.Errorf("status = %s; want %s", got.SubscriptionStatus, school.SubActive)
	}
}
