package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/student"
)

type StudentRepo struct {
	mu       sync.RWMutex
	students map[string]student.Student
}

var _ student.Repository = (*StudentRepo)(nil)

func NewStudentRepo() *StudentRepo {
	return &StudentRepo{students: make(map[string]student.Student)}
}

func (r *StudentRepo) CheckCodeUniqueness(ctx context.Context, schoolID, code string, excluded ...student.Student) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

next:
	for _, st := range r.students {
		if st.SchoolID != schoolID || st.StudentID != code {
			continue
		}
		for _, ex := range excluded {
			if ex.ID == st.ID {
				continue next
			}
		}
		return student.ErrCodeExists
	}
	return nil
}

func (r *StudentRepo) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.ID == "" {
		st.ID = newID()
	}
	r.students[st.ID] = st
	return st, nil
}

func (r *StudentRepo) GetStudentByID(ctx context.Context, schoolID, id string) (student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.students[id]
	if !ok || st.SchoolID != schoolID {
		return student.Student{}, student.ErrNotFound
	}
	return st, nil
}

func (r *StudentRepo) GetStudentByCode(ctx context.Context, schoolID, code string) (student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, st := range r.students {
		if st.SchoolID == schoolID && st.StudentID == code {
			return st, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (r *StudentRepo) QueryStudents(ctx context.Context, schoolID string, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var students []student.Student
	for _, st := range r.students {
		if st.SchoolID != schoolID {
			continue
		}
		if filter != nil && !matchStudent(st, filter) {
			continue
		}
		students = append(students, st)
	}
	// stable output regardless of map iteration order
	sort.Slice(students, func(i, j int) bool { return students[i].StudentID < students[j].StudentID })
	return students, nil
}

func matchStudent(st student.Student, filter *student.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(st.FullName), s) && !strings.Contains(st.StudentID, s) {
			return false
		}
	}
	if filter.ClassName != "" && st.ClassName != filter.ClassName {
		return false
	}
	if filter.BatchID != "" {
		var found bool
		for _, id := range st.BatchIDs {
			if id == filter.BatchID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && st.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func (r *StudentRepo) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.students[st.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	r.students[st.ID] = st
	return st, nil
}

func (r *StudentRepo) DeleteStudentsByID(ctx context.Context, schoolID string, ids ...string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, id := range ids {
		if st, ok := r.students[id]; ok && st.SchoolID == schoolID {
			delete(r.students, id)
			n++
		}
	}
	return n, nil
}
