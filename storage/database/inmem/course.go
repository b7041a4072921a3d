package inmemdb

import (
	"context"

	"github.com/trezcool/elimu/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func cloneCourse(c course.Course) course.Course {
	c.Students = append([]course.StudentSummary{}, c.Students...)
	c.Curriculum = append([]course.Lecture{}, c.Curriculum...)
	return c
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c = cloneCourse(c)
	repo.db.put(ctx, c.ID, c)
	return cloneCourse(c), nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return cloneCourse(c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	// the roster is only written by AddStudent
	c = cloneCourse(c)
	c.Students = orig.Students
	repo.db.put(ctx, c.ID, c)
	return cloneCourse(c), nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	repo.db.remove(ctx, id)
	return nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		if filter.Match(c) {
			courses = append(courses, cloneCourse(c))
		}
	}
	course.SortCourses(courses, filter.SortBy)
	return courses, nil
}

func (repo *courseRepository) AddStudent(ctx context.Context, courseID string, student course.StudentSummary) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c, ok := repo.db.table[courseID]
	if !ok {
		return course.ErrNotFound
	}
	if c.HasStudent(student.StudentID) {
		return nil
	}
	c = cloneCourse(c)
	c.Students = append(c.Students, student)
	repo.db.put(ctx, courseID, c)
	return nil
}
