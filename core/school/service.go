package school

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("institute not found")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		QueryAllSchools(ctx context.Context) ([]School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		// UpdateSubscription patches only the subscription columns.
		UpdateSubscription(ctx context.Context, id, status, planType string, expiresAt time.Time) error

		CreateLicenseKey(ctx context.Context, key LicenseKey) (LicenseKey, error)
		GetLicenseKey(ctx context.Context, key string) (LicenseKey, error)
		QueryLicenseKeys(ctx context.Context) ([]LicenseKey, error)
		UpdateLicenseKey(ctx context.Context, key LicenseKey) (LicenseKey, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, logger: logger}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	now := time.Now().UTC()
	trialDays := ns.TrialDays
	if trialDays == 0 {
		trialDays = 14
	}
	sch := School{
		Name:               ns.Name,
		InstituteType:      ns.InstituteType,
		SubscriptionStatus: SubTrial,
		PlanType:           PlanTrial,
		TrialEndsAt:        now.AddDate(0, 0, trialDays),
		Timezone:           ns.Timezone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if ns.DefaultEntryTime != "" {
		sch.DefaultEntryTime, _ = core.ParseClockTime(ns.DefaultEntryTime)
	}
	if ns.DefaultExitTime != "" {
		sch.DefaultExitTime, _ = core.ParseClockTime(ns.DefaultExitTime)
	}
	return svc.repo.CreateSchool(ctx, sch)
}

func (svc *Service) GetByID(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]School, error) {
	return svc.repo.QueryAllSchools(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSchool) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	sch.Name = us.Name
	sch.Timezone = us.Timezone
	if us.DefaultEntryTime != "" {
		sch.DefaultEntryTime, _ = core.ParseClockTime(us.DefaultEntryTime)
	}
	if us.DefaultExitTime != "" {
		sch.DefaultExitTime, _ = core.ParseClockTime(us.DefaultExitTime)
	}
	if us.LogoURL != "" {
		sch.LogoURL = us.LogoURL
	}
	sch.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(ctx, sch)
}

// Refresh derives the effective subscription state and opportunistically
// patches the stored status when it lags behind. The derived state is
// authoritative: a failed patch is logged, never surfaced, and the caller
// must still treat the school as expired.
func (svc *Service) Refresh(ctx context.Context, sch School, now time.Time) School {
	state := sch.SubscriptionState(now)
	if state == sch.SubscriptionStatus {
		return sch
	}
	if err := svc.repo.UpdateSubscription(ctx, sch.ID, state, sch.PlanType, sch.SubscriptionExpiresAt); err != nil {
		svc.logger.Warn("patching subscription status", errors.Wrap(err, "updating subscription"))
	}
	sch.SubscriptionStatus = state
	return sch
}

// ExtendSubscription activates the regular plan for `months` more months,
// stacking on top of a still-running subscription. This is the paid-order
// path; license keys go through Redeem.
func (svc *Service) ExtendSubscription(ctx context.Context, schoolID string, months int, now time.Time) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, schoolID)
	if err != nil {
		return School{}, errors.Wrap(err, "finding institute")
	}

	base := now
	if sch.SubscriptionStatus == SubActive && sch.SubscriptionExpiresAt.After(now) {
		base = sch.SubscriptionExpiresAt
	}
	sch.SubscriptionStatus = SubActive
	sch.PlanType = PlanRegular
	sch.SubscriptionExpiresAt = base.AddDate(0, months, 0)
	sch.UpdatedAt = now.UTC()
	return svc.repo.UpdateSchool(ctx, sch)
}

// MintLicenses generates `count` license keys for the given duration.
// When notifyEmail is set, the keys are emailed there (the flow a super-admin
// uses to hand keys to an institute) and EmailSent is recorded.
func (svc *Service) MintLicenses(ctx context.Context, d KeyDuration, count int, notifyEmail string) ([]LicenseKey, error) {
	if count < 1 {
		count = 1
	}
	now := time.Now().UTC()
	keys := make([]LicenseKey, 0, count)
	for i := 0; i < count; i++ {
		raw, err := GenerateKey(d)
		if err != nil {
			return nil, err
		}
		lk := LicenseKey{
			Key:           raw,
			DurationValue: d.Value,
			DurationUnit:  d.Unit,
			PlanType:      d.PlanType(),
			EmailSent:     notifyEmail != "",
			CreatedAt:     now,
		}
		lk, err = svc.repo.CreateLicenseKey(ctx, lk)
		if err != nil {
			return nil, errors.Wrap(err, "storing license key")
		}
		keys = append(keys, lk)
	}

	if notifyEmail != "" {
		raws := make([]string, 0, len(keys))
		for _, k := range keys {
			raws = append(raws, k.Key)
		}
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Address: notifyEmail}},
			Subject:      "Your license keys",
			TemplateName: "license-keys",
			TemplateData: struct{ Keys []string }{raws},
		})
	}
	return keys, nil
}

func (svc *Service) QueryLicenses(ctx context.Context) ([]LicenseKey, error) {
	return svc.repo.QueryLicenseKeys(ctx)
}

// Redeem activates a license key for a school: subscription becomes active
// until now + key duration, plan type per the key, key is single-use.
func (svc *Service) Redeem(ctx context.Context, schoolID, rawKey string, now time.Time) (School, error) {
	d, err := ParseKey(rawKey)
	if err != nil {
		return School{}, core.NewValidationError(err, core.FieldError{Field: "license_key", Error: err.Error()})
	}

	lk, err := svc.repo.GetLicenseKey(ctx, strings.ToUpper(core.CleanString(rawKey)))
	if err != nil {
		if errors.Cause(err) == ErrKeyNotFound {
			return School{}, core.NewValidationError(err, core.FieldError{Field: "license_key", Error: err.Error()})
		}
		return School{}, errors.Wrap(err, "finding license key")
	}
	if lk.IsActivated {
		return School{}, core.NewValidationError(ErrKeyActivated, core.FieldError{Field: "license_key", Error: ErrKeyActivated.Error()})
	}
	if lk.SchoolID != "" && lk.SchoolID != schoolID {
		return School{}, core.NewValidationError(ErrKeyWrongTenant, core.FieldError{Field: "license_key", Error: ErrKeyWrongTenant.Error()})
	}

	sch, err := svc.repo.GetSchoolByID(ctx, schoolID)
	if err != nil {
		return School{}, errors.Wrap(err, "finding institute")
	}

	sch.SubscriptionStatus = SubActive
	sch.PlanType = d.PlanType()
	sch.SubscriptionExpiresAt = d.ExpiryFrom(now)
	sch.UpdatedAt = now.UTC()
	sch, err = svc.repo.UpdateSchool(ctx, sch)
	if err != nil {
		return School{}, errors.Wrap(err, "updating institute subscription")
	}

	lk.SchoolID = schoolID
	lk.IsActivated = true
	lk.ActivatedAt = now.UTC()
	if _, err = svc.repo.UpdateLicenseKey(ctx, lk); err != nil {
		// the subscription is already extended; surface the inconsistency loudly
		return School{}, errors.Wrap(err, "marking license key activated")
	}
	return sch, nil
}
