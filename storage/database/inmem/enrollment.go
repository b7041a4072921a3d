package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core/enrollment"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db.enrollment}
}

func (repo *enrollmentRepository) GetStudentCourses(_ context.Context, userID string) (enrollment.StudentCourses, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sc, ok := repo.db.table[userID]
	if !ok {
		return enrollment.StudentCourses{}, enrollment.ErrNotFound
	}
	sc.Courses = append([]enrollment.PurchasedCourse{}, sc.Courses...)
	return sc, nil
}

func (repo *enrollmentRepository) AddCourse(ctx context.Context, userID string, pc enrollment.PurchasedCourse) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sc, ok := repo.db.table[userID]
	if !ok {
		sc = enrollment.StudentCourses{ID: uuid.NewString(), UserID: userID}
	}
	if sc.Has(pc.CourseID) {
		return nil
	}
	sc.Courses = append(append([]enrollment.PurchasedCourse{}, sc.Courses...), pc)
	repo.db.put(ctx, userID, sc)
	return nil
}
