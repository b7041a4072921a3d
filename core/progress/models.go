package progress

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

// LectureProgress is the viewed state of one lecture.
type LectureProgress struct {
	LectureID  string    `json:"lecture_id"`
	Viewed     bool      `json:"viewed"`
	DateViewed time.Time `json:"date_viewed"` // UTC
}

// CourseProgress is the progress record of a (user, course) pair.
// LecturesProgress is in insertion order, not curriculum order.
type CourseProgress struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	CourseID         string            `json:"course_id"`
	Completed        bool              `json:"completed"`
	CompletionDate   *time.Time        `json:"completion_date"` // UTC
	LecturesProgress []LectureProgress `json:"lectures_progress"`
}

func (p CourseProgress) entry(lectureID string) int {
	for i, lp := range p.LecturesProgress {
		if lp.LectureID == lectureID {
			return i
		}
	}
	return -1
}

// Details is what an entitled student sees of their progress.
type Details struct {
	CourseDetails  course.Course     `json:"course_details"`
	Progress       []LectureProgress `json:"progress"`
	Completed      bool              `json:"completed"`
	CompletionDate *time.Time        `json:"completion_date"`
	// NextLecture is the curriculum index to resume at.
	NextLecture int `json:"next_lecture"`
}

// View is the result of GetProgress. Details is nil when the course was not purchased.
type View struct {
	IsPurchased bool `json:"is_purchased"`
	*Details
}

// MarkViewed is the request to mark a lecture viewed.
type MarkViewed struct {
	CourseID  string `json:"course_id" validate:"required,notblank"`
	LectureID string `json:"lecture_id" validate:"required,notblank"`
}

func (mv *MarkViewed) Validate(validate *validator.Validate) error {
	mv.CourseID = core.CleanString(mv.CourseID)
	mv.LectureID = core.CleanString(mv.LectureID)
	return validate.Struct(mv)
}

// Reset is the request to reset a course progress.
type Reset struct {
	CourseID string `json:"course_id" validate:"required,notblank"`
}

func (r *Reset) Validate(validate *validator.Validate) error {
	r.CourseID = core.CleanString(r.CourseID)
	return validate.Struct(r)
}
