package enrollment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var ErrNotFound = core.NewNotFoundError("student courses not found")

type (
	Repository interface {
		GetStudentCourses(ctx context.Context, userID string) (StudentCourses, error)
		// AddCourse creates the user's record if missing, then adds the course unless it is already there.
		AddCourse(ctx context.Context, userID string, pc PurchasedCourse) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// IsPurchased is the entitlement check: whether the user's enrollment record includes the course.
func (svc *Service) IsPurchased(ctx context.Context, userID, courseID string) (bool, error) {
	sc, err := svc.repo.GetStudentCourses(ctx, userID)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "getting student courses")
	}
	return sc.Has(courseID), nil
}

// List returns the courses purchased by the user.
func (svc *Service) List(ctx context.Context, userID string) ([]PurchasedCourse, error) {
	sc, err := svc.repo.GetStudentCourses(ctx, userID)
	if err != nil {
		if err == ErrNotFound {
			return []PurchasedCourse{}, nil
		}
		return nil, errors.Wrap(err, "getting student courses")
	}
	if sc.Courses == nil {
		return []PurchasedCourse{}, nil
	}
	return sc.Courses, nil
}

// Add records the purchase. Recording the same course twice is a no-op.
func (svc *Service) Add(ctx context.Context, userID string, pc PurchasedCourse) error {
	if err := core.RequireFields(map[string]string{"user_id": userID, "course_id": pc.CourseID}); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.AddCourse(ctx, userID, pc), "adding purchased course")
}
