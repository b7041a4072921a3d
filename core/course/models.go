package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
)

// Lecture is one entry of a course's curriculum. The curriculum order is the viewing order.
type Lecture struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	VideoURL    string `json:"video_url"`
	PublicID    string `json:"public_id"` // media storage identity, used to delete the video
	FreePreview bool   `json:"free_preview"`
}

// StudentSummary is a roster entry, recorded when a student purchases the course.
type StudentSummary struct {
	StudentID    string          `json:"student_id"`
	StudentName  string          `json:"student_name"`
	StudentEmail string          `json:"student_email"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
}

type Course struct {
	ID              string           `json:"id"`
	InstructorID    string           `json:"instructor_id"`
	InstructorName  string           `json:"instructor_name"`
	Date            time.Time        `json:"date"` // UTC
	Title           string           `json:"title"`
	Category        string           `json:"category"`
	Level           string           `json:"level"`
	PrimaryLanguage string           `json:"primary_language"`
	Subtitle        string           `json:"subtitle"`
	Description     string           `json:"description"`
	Image           string           `json:"image"`
	WelcomeMessage  string           `json:"welcome_message"`
	Pricing         decimal.Decimal  `json:"pricing"`
	Objectives      string           `json:"objectives"`
	Students        []StudentSummary `json:"students"`
	Curriculum      []Lecture        `json:"curriculum"`
	IsPublished     bool             `json:"is_published"`
	UpdatedAt       time.Time        `json:"updated_at"` // UTC
}

// HasStudent reports whether the student is on the course's roster.
func (c Course) HasStudent(studentID string) bool {
	for _, s := range c.Students {
		if s.StudentID == studentID {
			return true
		}
	}
	return false
}

// LectureIndex returns the curriculum position of the lecture, or -1.
func (c Course) LectureIndex(lectureID string) int {
	for i, lec := range c.Curriculum {
		if lec.ID == lectureID {
			return i
		}
	}
	return -1
}

// PublicView is the course as shown in the catalog: no roster, and videos only for free-preview lectures.
func (c Course) PublicView() Course {
	view := c.LearnerView()
	view.Curriculum = make([]Lecture, len(c.Curriculum))
	for i, lec := range c.Curriculum {
		if !lec.FreePreview {
			lec.VideoURL = ""
			lec.PublicID = ""
		}
		view.Curriculum[i] = lec
	}
	return view
}

// LearnerView is the course as shown to an entitled student: the full curriculum, but no roster.
func (c Course) LearnerView() Course {
	view := c
	view.Students = []StudentSummary{}
	if view.Curriculum == nil {
		view.Curriculum = []Lecture{}
	}
	return view
}

type NewLecture struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required,notblank"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	PublicID    string `json:"public_id"`
	FreePreview bool   `json:"free_preview"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title           string          `json:"title" validate:"required,notblank"`
	Category        string          `json:"category" validate:"required,notblank"`
	Level           string          `json:"level" validate:"required,notblank"`
	PrimaryLanguage string          `json:"primary_language" validate:"required,notblank"`
	Subtitle        string          `json:"subtitle"`
	Description     string          `json:"description"`
	Image           string          `json:"image" validate:"omitempty,url"`
	WelcomeMessage  string          `json:"welcome_message"`
	Pricing         decimal.Decimal `json:"pricing"`
	Objectives      string          `json:"objectives"`
	Curriculum      []NewLecture    `json:"curriculum" validate:"dive"`
	IsPublished     bool            `json:"is_published"`
}

func (nc *NewCourse) clean() {
	nc.Title = core.CleanString(nc.Title)
	nc.Category = core.CleanString(nc.Category)
	nc.Level = core.CleanString(nc.Level)
	nc.PrimaryLanguage = core.CleanString(nc.PrimaryLanguage)
	nc.Subtitle = core.CleanString(nc.Subtitle)
	nc.Image = core.CleanString(nc.Image)
	for i := range nc.Curriculum {
		nc.Curriculum[i].ID = core.CleanString(nc.Curriculum[i].ID)
		nc.Curriculum[i].Title = core.CleanString(nc.Curriculum[i].Title)
		nc.Curriculum[i].VideoURL = core.CleanString(nc.Curriculum[i].VideoURL)
	}
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.clean()
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// The roster, the instructor and the creation date can't be updated.
type UpdateCourse NewCourse

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	(*NewCourse)(uc).clean()
	return validate.Struct(uc)
}

// Sort keys
const (
	SortPriceLowToHigh = "price-lowtohigh"
	SortPriceHighToLow = "price-hightolow"
	SortTitleAToZ      = "title-atoz"
	SortTitleZToA      = "title-ztoa"

	DefaultSort = SortPriceLowToHigh
)

var SortKeys = []string{SortPriceLowToHigh, SortPriceHighToLow, SortTitleAToZ, SortTitleZToA}

// QueryFilter selects catalog courses. Each non-empty set restricts its dimension to the given values (AND-ed).
type QueryFilter struct {
	Categories   []string
	Levels       []string
	Languages    []string
	InstructorID string
	SortBy       string
}

// Clean trims the filter values and falls back to DefaultSort for unknown sort keys.
func (qf *QueryFilter) Clean() {
	qf.Categories = core.CleanStrings(qf.Categories)
	qf.Levels = core.CleanStrings(qf.Levels)
	qf.Languages = core.CleanStrings(qf.Languages)
	qf.InstructorID = core.CleanString(qf.InstructorID)
	qf.SortBy = core.CleanString(qf.SortBy, true /* lower */)
	if !isSortKey(qf.SortBy) {
		qf.SortBy = DefaultSort
	}
}

// Match reports whether the course passes the filter.
func (qf QueryFilter) Match(c Course) bool {
	return inSet(qf.Categories, c.Category) &&
		inSet(qf.Levels, c.Level) &&
		inSet(qf.Languages, c.PrimaryLanguage) &&
		(qf.InstructorID == "" || qf.InstructorID == c.InstructorID)
}

func inSet(set []string, val string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == val {
			return true
		}
	}
	return false
}

func isSortKey(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}
