package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("student not found")
	ErrCodeExists = errors.New("a student with this ID already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, schoolID, code string, excluded ...Student) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudentByID(ctx context.Context, schoolID, id string) (Student, error)
		// GetStudentByCode looks a student up by the human code on their ID card.
		GetStudentByCode(ctx context.Context, schoolID, code string) (Student, error)
		// QueryStudents applies AND on available QueryFilter fields; Search does a
		// case-insensitive match on full name or student code.
		QueryStudents(ctx context.Context, schoolID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, schoolID string, ids ...string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckCodeUniqueness(schoolID, code string, excluded ...Student) error {
	if err := svc.repo.CheckCodeUniqueness(context.Background(), schoolID, code, excluded...); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, schoolID string, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		SchoolID:    schoolID,
		StudentID:   ns.StudentID,
		FullName:    ns.FullName,
		ClassName:   ns.ClassName,
		Section:     ns.Section,
		Course:      ns.Course,
		BatchIDs:    ns.BatchIDs,
		ParentName:  ns.ParentName,
		ParentPhone: ns.ParentPhone,
		ParentEmail: ns.ParentEmail,
		PhotoURL:    ns.PhotoURL,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *Service) GetByID(ctx context.Context, schoolID, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, schoolID, id)
}

func (svc *Service) GetByCode(ctx context.Context, schoolID, code string) (Student, error) {
	return svc.repo.GetStudentByCode(ctx, schoolID, core.CleanString(code, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, schoolID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, schoolID, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, schoolID, id string, us UpdateStudent) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, schoolID, id)
	if err != nil {
		return Student{}, err
	}
	st.FullName = us.FullName
	st.ClassName = us.ClassName
	st.Section = us.Section
	st.Course = us.Course
	if us.BatchIDs != nil {
		st.BatchIDs = us.BatchIDs
	}
	if us.BatchTimings != nil {
		st.BatchTimings = us.BatchTimings
	}
	st.ParentName = us.ParentName
	st.ParentPhone = us.ParentPhone
	st.ParentEmail = us.ParentEmail
	if us.PhotoURL != "" {
		st.PhotoURL = us.PhotoURL
	}
	if us.IsActive != nil {
		st.IsActive = *us.IsActive
	}
	st.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *Service) Delete(ctx context.Context, schoolID string, ids ...string) error {
	_, err := svc.repo.DeleteStudentsByID(ctx, schoolID, ids...)
	return err
}
