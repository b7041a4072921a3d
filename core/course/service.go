package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("course not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// UpdateCourse saves every field but the roster (Students).
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
		// QueryCourses returns the courses matching the filter, sorted by filter.SortBy.
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		// AddStudent adds the student to the roster unless a summary with the same StudentID is already there.
		AddStudent(ctx context.Context, courseID string, student StudentSummary) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func newCurriculum(lectures []NewLecture) []Lecture {
	curriculum := make([]Lecture, 0, len(lectures))
	for _, nl := range lectures {
		id := nl.ID
		if id == "" {
			id = uuid.NewString()
		}
		curriculum = append(curriculum, Lecture{
			ID:          id,
			Title:       nl.Title,
			VideoURL:    nl.VideoURL,
			PublicID:    nl.PublicID,
			FreePreview: nl.FreePreview,
		})
	}
	return curriculum
}

// Create creates a new Course owned by the given instructor. nc must have been validated.
func (svc *Service) Create(ctx context.Context, instructorID, instructorName string, nc NewCourse) (Course, error) {
	now := nowFunc().UTC()
	c := Course{
		ID:              uuid.NewString(),
		InstructorID:    instructorID,
		InstructorName:  instructorName,
		Date:            now,
		Title:           nc.Title,
		Category:        nc.Category,
		Level:           nc.Level,
		PrimaryLanguage: nc.PrimaryLanguage,
		Subtitle:        nc.Subtitle,
		Description:     nc.Description,
		Image:           nc.Image,
		WelcomeMessage:  nc.WelcomeMessage,
		Pricing:         nc.Pricing,
		Objectives:      nc.Objectives,
		Students:        []StudentSummary{},
		Curriculum:      newCurriculum(nc.Curriculum),
		IsPublished:     nc.IsPublished,
		UpdatedAt:       now,
	}
	c, err := svc.repo.CreateCourse(ctx, c)
	return c, errors.Wrap(err, "creating course")
}

// Update replaces the editable fields of orig. Lectures keep their IDs; new lectures get one.
func (svc *Service) Update(ctx context.Context, orig Course, uc UpdateCourse) (Course, error) {
	c := orig
	c.Title = uc.Title
	c.Category = uc.Category
	c.Level = uc.Level
	c.PrimaryLanguage = uc.PrimaryLanguage
	c.Subtitle = uc.Subtitle
	c.Description = uc.Description
	c.Image = uc.Image
	c.WelcomeMessage = uc.WelcomeMessage
	c.Pricing = uc.Pricing
	c.Objectives = uc.Objectives
	c.Curriculum = newCurriculum(uc.Curriculum)
	c.IsPublished = uc.IsPublished
	c.UpdatedAt = nowFunc().UTC()

	c, err := svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		if err == ErrNotFound {
			return Course{}, err
		}
		return Course{}, errors.Wrap(err, "updating course")
	}
	return c, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

// Curriculum returns the ordered lectures of the course.
func (svc *Service) Curriculum(ctx context.Context, id string) ([]Lecture, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Curriculum, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

// Query returns the catalog courses matching the filter, sorted by filter.SortBy.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Course, error) {
	filter.Clean()
	courses, err := svc.repo.QueryCourses(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []Course{}
	}
	return courses, nil
}

// QueryByInstructor returns the courses owned by the instructor, newest first.
func (svc *Service) QueryByInstructor(ctx context.Context, instructorID string) ([]Course, error) {
	courses, err := svc.Query(ctx, QueryFilter{InstructorID: instructorID})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(courses)
	return courses, nil
}

// AddStudent records the student on the course's roster. Adding the same student twice is a no-op.
func (svc *Service) AddStudent(ctx context.Context, courseID string, student StudentSummary) error {
	if err := svc.repo.AddStudent(ctx, courseID, student); err != nil {
		if err == ErrNotFound {
			return err
		}
		return errors.Wrap(err, "adding student")
	}
	return nil
}
