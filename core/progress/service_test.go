package progress_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/user"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	"github.com/trezcool/elimu/tests"
)

type fixture struct {
	svc         *progress.Service
	repo        progress.Repository
	enrollments enrollment.Repository
	student     user.User
	course      course.Course
}

func setup(t *testing.T, lectureCount int) fixture {
	db := inmemdb.New()
	usrRepo := inmemdb.NewUserRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	enrollmentRepo := inmemdb.NewEnrollmentRepository(db)
	repo := inmemdb.NewProgressRepository(db)

	prof := testutil.CreateUser(t, usrRepo, "Prof", "prof", "prof@test.io", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.io", "", "", true)
	c := testutil.CreateCourse(t, courseRepo, prof, "Guitar", "music", "beginner", "english", "10", testutil.Lectures(lectureCount))

	return fixture{
		svc:         progress.NewService(repo, course.NewService(courseRepo), enrollment.NewService(enrollmentRepo), db),
		repo:        repo,
		enrollments: enrollmentRepo,
		student:     student,
		course:      c,
	}
}

func TestService_MarkLectureViewed(t *testing.T) {
	ctx := context.Background()

	t.Run("required fields", func(t *testing.T) {
		f := setup(t, 2)
		_, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, " ")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "lecture_id", vErr.Fields[0].Field)
	})

	t.Run("unknown course", func(t *testing.T) {
		f := setup(t, 2)
		_, err := f.svc.MarkLectureViewed(ctx, f.student.ID, "unknown", "L1")
		assert.Equal(t, course.ErrNotFound, err)
	})

	t.Run("first view creates the record", func(t *testing.T) {
		f := setup(t, 2)
		p, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L1")
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, f.student.ID, p.UserID)
		assert.Equal(t, f.course.ID, p.CourseID)
		assert.False(t, p.Completed)
		assert.Nil(t, p.CompletionDate)
		require.Len(t, p.LecturesProgress, 1)
		assert.True(t, p.LecturesProgress[0].Viewed)
		assert.False(t, p.LecturesProgress[0].DateViewed.IsZero())
	})

	t.Run("viewing again refreshes the entry", func(t *testing.T) {
		f := setup(t, 2)
		first, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L1")
		require.NoError(t, err)
		again, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		require.Len(t, again.LecturesProgress, 1)
		assert.False(t, again.LecturesProgress[0].DateViewed.Before(first.LecturesProgress[0].DateViewed))
	})

	t.Run("completion in any order", func(t *testing.T) {
		f := setup(t, 3)
		for _, id := range []string{"L3", "L1"} {
			p, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, id)
			require.NoError(t, err)
			assert.False(t, p.Completed)
		}
		p, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L2")
		require.NoError(t, err)
		assert.True(t, p.Completed)
		require.NotNil(t, p.CompletionDate)

		completedAt := *p.CompletionDate
		p, err = f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L1")
		require.NoError(t, err)
		assert.True(t, p.Completed)
		assert.Equal(t, completedAt, *p.CompletionDate, "completion date is set once")
	})

	t.Run("lectures outside the curriculum don't complete the course", func(t *testing.T) {
		f := setup(t, 2)
		for _, id := range []string{"L1", "X"} {
			p, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, id)
			require.NoError(t, err)
			assert.False(t, p.Completed)
		}
	})

	t.Run("empty curriculum never completes", func(t *testing.T) {
		f := setup(t, 0)
		p, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L1")
		require.NoError(t, err)
		assert.False(t, p.Completed)
	})

	t.Run("concurrent views are all recorded", func(t *testing.T) {
		f := setup(t, 5)
		var wg sync.WaitGroup
		for _, lec := range f.course.Curriculum {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, id)
				assert.NoError(t, err)
			}(lec.ID)
		}
		wg.Wait()

		p, err := f.repo.GetProgress(ctx, f.student.ID, f.course.ID)
		require.NoError(t, err)
		assert.Len(t, p.LecturesProgress, 5)
		assert.True(t, p.Completed)
	})
}

func TestService_GetProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("not purchased", func(t *testing.T) {
		f := setup(t, 2)
		_, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L1")
		require.NoError(t, err)

		view, err := f.svc.GetProgress(ctx, f.student.ID, f.course.ID)
		require.NoError(t, err)
		assert.False(t, view.IsPurchased)
		assert.Nil(t, view.Details)
	})

	t.Run("purchased, not started", func(t *testing.T) {
		f := setup(t, 2)
		testutil.Enroll(t, f.enrollments, f.student, f.course)

		view, err := f.svc.GetProgress(ctx, f.student.ID, f.course.ID)
		require.NoError(t, err)
		assert.True(t, view.IsPurchased)
		require.NotNil(t, view.Details)
		assert.Equal(t, f.course.ID, view.CourseDetails.ID)
		assert.Empty(t, view.CourseDetails.Students)
		assert.Empty(t, view.Progress)
		assert.Equal(t, 0, view.NextLecture)
	})

	t.Run("purchased, in progress", func(t *testing.T) {
		f := setup(t, 3)
		testutil.Enroll(t, f.enrollments, f.student, f.course)
		for _, id := range []string{"L1", "L3"} {
			_, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, id)
			require.NoError(t, err)
		}

		view, err := f.svc.GetProgress(ctx, f.student.ID, f.course.ID)
		require.NoError(t, err)
		require.NotNil(t, view.Details)
		assert.Len(t, view.Progress, 2)
		assert.False(t, view.Completed)
		assert.Equal(t, 1, view.NextLecture)
	})
}

func TestService_ResetProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("no record", func(t *testing.T) {
		f := setup(t, 2)
		_, err := f.svc.ResetProgress(ctx, f.student.ID, f.course.ID)
		assert.Equal(t, progress.ErrNotFound, err)
	})

	t.Run("reset clears entries and completion", func(t *testing.T) {
		f := setup(t, 1)
		p, err := f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L1")
		require.NoError(t, err)
		require.True(t, p.Completed)

		reset, err := f.svc.ResetProgress(ctx, f.student.ID, f.course.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, reset.ID)
		assert.False(t, reset.Completed)
		assert.Nil(t, reset.CompletionDate)
		assert.Empty(t, reset.LecturesProgress)

		// the course can be completed again
		p, err = f.svc.MarkLectureViewed(ctx, f.student.ID, f.course.ID, "L1")
		require.NoError(t, err)
		assert.True(t, p.Completed)
	})
}
