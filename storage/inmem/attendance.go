package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/darasa/darasa/core/attendance"
)

type AttendanceRepo struct {
	mu      sync.RWMutex
	entries map[string]attendance.Entry
}

var _ attendance.Repository = (*AttendanceRepo)(nil)

func NewAttendanceRepo() *AttendanceRepo {
	return &AttendanceRepo{entries: make(map[string]attendance.Entry)}
}

func (r *AttendanceRepo) CreateEntry(ctx context.Context, e attendance.Entry) (attendance.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = newID()
	}
	r.entries[e.ID] = e
	return e, nil
}

func (r *AttendanceRepo) GetOpenEntry(ctx context.Context, schoolID, studentID string, date time.Time) (attendance.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var open []attendance.Entry
	for _, e := range r.entries {
		if e.SchoolID == schoolID && e.StudentID == studentID && e.Date.Equal(date) && e.IsOpen() {
			open = append(open, e)
		}
	}
	if len(open) == 0 {
		return attendance.Entry{}, attendance.ErrNoOpenEntry
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.After(open[j].CreatedAt) })
	return open[0], nil
}

func (r *AttendanceRepo) UpdateEntry(ctx context.Context, e attendance.Entry) (attendance.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.ID]; !ok {
		return attendance.Entry{}, attendance.ErrNotFound
	}
	r.entries[e.ID] = e
	return e, nil
}

func (r *AttendanceRepo) QueryEntries(ctx context.Context, schoolID string, filter *attendance.QueryFilter) ([]attendance.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []attendance.Entry
	for _, e := range r.entries {
		if e.SchoolID != schoolID {
			continue
		}
		if filter != nil && !matchEntry(e, filter) {
			continue
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func matchEntry(e attendance.Entry, filter *attendance.QueryFilter) bool {
	if filter.StudentID != "" && e.StudentID != filter.StudentID {
		return false
	}
	if !filter.DateFrom.IsZero() && e.Date.Before(filter.DateFrom) {
		return false
	}
	if !filter.DateTo.IsZero() && e.Date.After(filter.DateTo) {
		return false
	}
	if filter.OpenOnly && !e.IsOpen() {
		return false
	}
	return true
}

func (r *AttendanceRepo) QueryEntriesForMonth(ctx context.Context, schoolID string, year int, month time.Month) ([]attendance.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []attendance.Entry
	for _, e := range r.entries {
		if e.SchoolID == schoolID && e.Date.Year() == year && e.Date.Month() == month {
			entries = append(entries, e)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []attendance.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
