package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if role == "" {
		role = user.RoleStudent
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// Lectures returns n lectures with IDs L1..Ln.
func Lectures(n int) []course.Lecture {
	lectures := make([]course.Lecture, 0, n)
	for i := 1; i <= n; i++ {
		id := "L" + strconv.Itoa(i)
		lectures = append(lectures, course.Lecture{
			ID:       id,
			Title:    "Lecture " + id,
			VideoURL: "https://cdn.test/" + id + ".mp4",
			PublicID: "video-" + id + ".mp4",
		})
	}
	return lectures
}

// CreateCourse stores a course owned by instructor. Date is now, unless provided.
func CreateCourse(
	t *testing.T,
	repo course.Repository,
	instructor user.User,
	title, category, level, lang, price string,
	curriculum []course.Lecture,
	date ...time.Time,
) course.Course {
	tstamp := time.Now().UTC()
	if len(date) > 0 {
		tstamp = date[0].UTC()
	}
	if curriculum == nil {
		curriculum = []course.Lecture{}
	}
	c := course.Course{
		ID:              uuid.NewString(),
		InstructorID:    instructor.ID,
		InstructorName:  instructor.DisplayName(),
		Date:            tstamp,
		Title:           title,
		Category:        category,
		Level:           level,
		PrimaryLanguage: lang,
		Pricing:         decimal.RequireFromString(price),
		Students:        []course.StudentSummary{},
		Curriculum:      curriculum,
		IsPublished:     true,
		UpdatedAt:       tstamp,
	}
	c, err := repo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}

// Enroll records the purchase of c by usr.
func Enroll(t *testing.T, repo enrollment.Repository, usr user.User, c course.Course) {
	err := repo.AddCourse(context.Background(), usr.ID, enrollment.PurchasedCourse{
		CourseID:       c.ID,
		Title:          c.Title,
		InstructorID:   c.InstructorID,
		InstructorName: c.InstructorName,
		DateOfPurchase: time.Now().UTC(),
		CourseImage:    c.Image,
	})
	if err != nil {
		t.Fatalf("enroll() failed: %v", err)
	}
}
