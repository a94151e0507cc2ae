package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/darasa/darasa/core/school"
)

type SchoolRepo struct {
	mu      sync.RWMutex
	schools map[string]school.School
	keys    map[string]school.LicenseKey // by raw key
}

var _ school.Repository = (*SchoolRepo)(nil)

func NewSchoolRepo() *SchoolRepo {
	return &SchoolRepo{
		schools: make(map[string]school.School),
		keys:    make(map[string]school.LicenseKey),
	}
}

func (r *SchoolRepo) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sch.ID == "" {
		sch.ID = newID()
	}
	r.schools[sch.ID] = sch
	return sch, nil
}

func (r *SchoolRepo) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sch, ok := r.schools[id]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	return sch, nil
}

func (r *SchoolRepo) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schools := make([]school.School, 0, len(r.schools))
	for _, sch := range r.schools {
		schools = append(schools, sch)
	}
	return schools, nil
}

func (r *SchoolRepo) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schools[sch.ID]; !ok {
		return school.School{}, school.ErrNotFound
	}
	r.schools[sch.ID] = sch
	return sch, nil
}

func (r *SchoolRepo) UpdateSubscription(ctx context.Context, id, status, planType string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sch, ok := r.schools[id]
	if !ok {
		return school.ErrNotFound
	}
	sch.SubscriptionStatus = status
	sch.PlanType = planType
	sch.SubscriptionExpiresAt = expiresAt
	sch.UpdatedAt = time.Now().UTC()
	r.schools[id] = sch
	return nil
}

func (r *SchoolRepo) CreateLicenseKey(ctx context.Context, key school.LicenseKey) (school.LicenseKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys[key.Key] = key
	return key, nil
}

func (r *SchoolRepo) GetLicenseKey(ctx context.Context, key string) (school.LicenseKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lk, ok := r.keys[key]
	if !ok {
		return school.LicenseKey{}, school.ErrKeyNotFound
	}
	return lk, nil
}

func (r *SchoolRepo) QueryLicenseKeys(ctx context.Context) ([]school.LicenseKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]school.LicenseKey, 0, len(r.keys))
	for _, lk := range r.keys {
		keys = append(keys, lk)
	}
	return keys, nil
}

func (r *SchoolRepo) UpdateLicenseKey(ctx context.Context, key school.LicenseKey) (school.LicenseKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key.Key]; !ok {
		return school.LicenseKey{}, school.ErrKeyNotFound
	}
	r.keys[key.Key] = key
	return key, nil
}
