package inmemdb

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/user"
)

var errTxFailed = errors.New("tx failed")

func TestDB_WithinTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commit keeps the writes", func(t *testing.T) {
		db := New()
		courses := NewCourseRepository(db)

		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := courses.CreateCourse(ctx, course.Course{ID: "c1", Title: "Guitar"})
			return err
		})
		require.NoError(t, err)
		_, err = courses.GetCourse(ctx, "c1")
		assert.NoError(t, err)
	})

	t.Run("rollback undoes every write of the transaction", func(t *testing.T) {
		db := New()
		courses := NewCourseRepository(db)
		enrollments := NewEnrollmentRepository(db)
		_, err := courses.CreateCourse(ctx, course.Course{ID: "c1", Title: "Guitar"})
		require.NoError(t, err)
		_, err = courses.CreateCourse(ctx, course.Course{ID: "c2", Title: "Drums"})
		require.NoError(t, err)

		err = db.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := courses.UpdateCourse(ctx, course.Course{ID: "c1", Title: "Guitar 101"}); err != nil {
				return err
			}
			if _, err := courses.UpdateCourse(ctx, course.Course{ID: "c1", Title: "Guitar 102"}); err != nil {
				return err
			}
			if err := courses.AddStudent(ctx, "c1", course.StudentSummary{StudentID: "s1"}); err != nil {
				return err
			}
			if err := courses.DeleteCourse(ctx, "c2"); err != nil {
				return err
			}
			if err := enrollments.AddCourse(ctx, "s1", enrollment.PurchasedCourse{CourseID: "c1"}); err != nil {
				return err
			}
			return errTxFailed
		})
		assert.Equal(t, errTxFailed, err)

		c1, err := courses.GetCourse(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Guitar", c1.Title)
		assert.Empty(t, c1.Students)
		_, err = courses.GetCourse(ctx, "c2")
		assert.NoError(t, err)
		_, err = enrollments.GetStudentCourses(ctx, "s1")
		assert.Equal(t, enrollment.ErrNotFound, err)
	})

	t.Run("rollback keeps writes made outside the transaction", func(t *testing.T) {
		db := New()
		courses := NewCourseRepository(db)
		users := NewUserRepository(db)

		inTx := make(chan struct{})
		outsideDone := make(chan struct{})
		errc := make(chan error, 1)
		go func() {
			errc <- db.WithinTransaction(ctx, func(ctx context.Context) error {
				if _, err := courses.CreateCourse(ctx, course.Course{ID: "in-tx"}); err != nil {
					return err
				}
				close(inTx)
				<-outsideDone
				return errTxFailed
			})
		}()

		<-inTx
		_, err := courses.CreateCourse(ctx, course.Course{ID: "outside"})
		require.NoError(t, err)
		_, err = users.CreateUser(ctx, user.User{ID: "u1", Username: "u1"})
		require.NoError(t, err)
		close(outsideDone)
		assert.Equal(t, errTxFailed, <-errc)

		_, err = courses.GetCourse(ctx, "in-tx")
		assert.Equal(t, course.ErrNotFound, err)
		_, err = courses.GetCourse(ctx, "outside")
		assert.NoError(t, err)
		_, err = users.GetUser(ctx, user.GetFilter{ID: "u1"})
		assert.NoError(t, err)
	})

	t.Run("writes of another store are not journaled", func(t *testing.T) {
		db, other := New(), New()
		otherCourses := NewCourseRepository(other)

		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := otherCourses.CreateCourse(ctx, course.Course{ID: "c1"}); err != nil {
				return err
			}
			return errTxFailed
		})
		assert.Equal(t, errTxFailed, err)
		_, err = otherCourses.GetCourse(ctx, "c1")
		assert.NoError(t, err)
	})

	t.Run("commit hooks run after commit only", func(t *testing.T) {
		db := New()
		var ran []string

		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			core.OnCommit(ctx, func(context.Context) { ran = append(ran, "committed") })
			assert.Empty(t, ran, "hooks wait for the commit")
			return nil
		})
		require.NoError(t, err)

		err = db.WithinTransaction(ctx, func(ctx context.Context) error {
			core.OnCommit(ctx, func(context.Context) { ran = append(ran, "rolled back") })
			return errTxFailed
		})
		assert.Equal(t, errTxFailed, err)
		assert.Equal(t, []string{"committed"}, ran)
	})
}
