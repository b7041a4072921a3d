package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("progress not found")
)

type (
	Repository interface {
		GetProgress(ctx context.Context, userID, courseID string) (CourseProgress, error)
		// SaveProgress creates or replaces the progress record of (p.UserID, p.CourseID).
		SaveProgress(ctx context.Context, p CourseProgress) (CourseProgress, error)
	}

	// CourseGetter is the curriculum lookup.
	CourseGetter interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
	}

	// EntitlementChecker tells whether a user purchased a course.
	EntitlementChecker interface {
		IsPurchased(ctx context.Context, userID, courseID string) (bool, error)
	}

	Service struct {
		repo        Repository
		courses     CourseGetter
		entitlement EntitlementChecker
		tx          core.Transactor
	}
)

func NewService(repo Repository, courses CourseGetter, entitlement EntitlementChecker, tx core.Transactor) *Service {
	return &Service{
		repo:        repo,
		courses:     courses,
		entitlement: entitlement,
		tx:          tx,
	}
}

// MarkLectureViewed marks the lecture viewed, creating the progress record on first use.
// The course gets completed once every lecture of its curriculum is viewed.
func (svc *Service) MarkLectureViewed(ctx context.Context, userID, courseID, lectureID string) (CourseProgress, error) {
	if err := core.RequireFields(map[string]string{"user_id": userID, "course_id": courseID, "lecture_id": lectureID}); err != nil {
		return CourseProgress{}, err
	}

	c, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		if err == course.ErrNotFound {
			return CourseProgress{}, err
		}
		return CourseProgress{}, errors.Wrap(err, "getting course")
	}

	var saved CourseProgress
	err = svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := svc.repo.GetProgress(ctx, userID, courseID)
		switch {
		case err == ErrNotFound:
			p = CourseProgress{
				ID:               uuid.NewString(),
				UserID:           userID,
				CourseID:         courseID,
				LecturesProgress: []LectureProgress{},
			}
		case err != nil:
			return errors.Wrap(err, "getting progress")
		}

		now := nowFunc().UTC()
		if i := p.entry(lectureID); i >= 0 {
			p.LecturesProgress[i].Viewed = true
			p.LecturesProgress[i].DateViewed = now
		} else {
			p.LecturesProgress = append(p.LecturesProgress, LectureProgress{LectureID: lectureID, Viewed: true, DateViewed: now})
		}

		if !p.Completed && IsComplete(c.Curriculum, p.LecturesProgress) {
			p.Completed = true
			p.CompletionDate = &now
		}

		saved, err = svc.repo.SaveProgress(ctx, p)
		return errors.Wrap(err, "saving progress")
	})
	if err != nil {
		return CourseProgress{}, err
	}
	return saved, nil
}

// GetProgress returns the progress of an entitled user. Nothing but the not-purchased signal is returned otherwise.
func (svc *Service) GetProgress(ctx context.Context, userID, courseID string) (View, error) {
	if err := core.RequireFields(map[string]string{"user_id": userID, "course_id": courseID}); err != nil {
		return View{}, err
	}

	purchased, err := svc.entitlement.IsPurchased(ctx, userID, courseID)
	if err != nil {
		return View{}, errors.Wrap(err, "checking entitlement")
	}
	if !purchased {
		return View{IsPurchased: false}, nil
	}

	c, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		if err == course.ErrNotFound {
			return View{}, err
		}
		return View{}, errors.Wrap(err, "getting course")
	}

	details := &Details{
		CourseDetails: c.LearnerView(),
		Progress:      []LectureProgress{},
	}
	p, err := svc.repo.GetProgress(ctx, userID, courseID)
	switch {
	case err == ErrNotFound: // not started: resume at the first lecture
	case err != nil:
		return View{}, errors.Wrap(err, "getting progress")
	default:
		if p.LecturesProgress != nil {
			details.Progress = p.LecturesProgress
		}
		details.Completed = p.Completed
		details.CompletionDate = p.CompletionDate
		details.NextLecture = NextLecture(c.Curriculum, p.LecturesProgress, p.Completed)
	}
	return View{IsPurchased: true, Details: details}, nil
}

// ResetProgress clears the lecture entries and the completion of an existing progress record.
func (svc *Service) ResetProgress(ctx context.Context, userID, courseID string) (CourseProgress, error) {
	if err := core.RequireFields(map[string]string{"user_id": userID, "course_id": courseID}); err != nil {
		return CourseProgress{}, err
	}

	var saved CourseProgress
	err := svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := svc.repo.GetProgress(ctx, userID, courseID)
		if err != nil {
			if err == ErrNotFound {
				return err
			}
			return errors.Wrap(err, "getting progress")
		}

		p.LecturesProgress = []LectureProgress{}
		p.Completed = false
		p.CompletionDate = nil

		saved, err = svc.repo.SaveProgress(ctx, p)
		return errors.Wrap(err, "saving progress")
	})
	if err != nil {
		return CourseProgress{}, err
	}
	return saved, nil
}
