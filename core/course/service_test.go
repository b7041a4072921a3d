package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/user"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	"github.com/trezcool/elimu/tests"
)

func setup(t *testing.T) (*course.Service, course.Repository, user.User) {
	db := inmemdb.New()
	repo := inmemdb.NewCourseRepository(db)
	prof := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Prof", "prof", "prof@test.io", "", user.RoleInstructor, true)
	return course.NewService(repo), repo, prof
}

func courseIDs(courses []course.Course) []string {
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	return ids
}

func TestService_Create(t *testing.T) {
	svc, repo, prof := setup(t)

	c, err := svc.Create(context.Background(), prof.ID, prof.DisplayName(), course.NewCourse{
		Title:           "Guitar",
		Category:        "music",
		Level:           "beginner",
		PrimaryLanguage: "english",
		Pricing:         decimal.RequireFromString("19.99"),
		Curriculum:      []course.NewLecture{{Title: "Intro"}, {ID: "chords", Title: "Chords"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, prof.ID, c.InstructorID)
	assert.Equal(t, "Prof", c.InstructorName)
	assert.False(t, c.Date.IsZero())
	assert.NotNil(t, c.Students)
	assert.Empty(t, c.Students)
	require.Len(t, c.Curriculum, 2)
	assert.NotEmpty(t, c.Curriculum[0].ID)
	assert.Equal(t, "chords", c.Curriculum[1].ID)

	stored, err := repo.GetCourse(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, stored)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo, prof := setup(t)
	orig := testutil.CreateCourse(t, repo, prof, "Guitar", "music", "beginner", "english", "10", testutil.Lectures(2))
	require.NoError(t, repo.AddStudent(ctx, orig.ID, course.StudentSummary{StudentID: "s1"}))
	orig, err := repo.GetCourse(ctx, orig.ID)
	require.NoError(t, err)

	t.Run("keeps lecture ids and the roster", func(t *testing.T) {
		updated, err := svc.Update(ctx, orig, course.UpdateCourse{
			Title:           "Guitar 101",
			Category:        "music",
			Level:           "intermediate",
			PrimaryLanguage: "english",
			Pricing:         decimal.RequireFromString("15"),
			Curriculum: []course.NewLecture{
				{ID: "L2", Title: "Chords"},
				{ID: "L1", Title: "Intro"},
				{Title: "Solos"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Guitar 101", updated.Title)
		assert.Equal(t, orig.Date, updated.Date)
		assert.Equal(t, orig.InstructorID, updated.InstructorID)
		assert.True(t, updated.UpdatedAt.After(orig.UpdatedAt) || updated.UpdatedAt.Equal(orig.UpdatedAt))
		require.Len(t, updated.Curriculum, 3)
		assert.Equal(t, "L2", updated.Curriculum[0].ID)
		assert.Equal(t, "L1", updated.Curriculum[1].ID)
		assert.NotEmpty(t, updated.Curriculum[2].ID)
		assert.True(t, updated.HasStudent("s1"))
	})

	t.Run("deleted course", func(t *testing.T) {
		gone := testutil.CreateCourse(t, repo, prof, "Drums", "music", "beginner", "english", "10", nil)
		require.NoError(t, svc.Delete(ctx, gone.ID))
		_, err := svc.Update(ctx, gone, course.UpdateCourse{Title: "Drums"})
		assert.Equal(t, course.ErrNotFound, err)
	})
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc, repo, prof := setup(t)
	now := time.Now().UTC()
	guitar := testutil.CreateCourse(t, repo, prof, "Guitar", "music", "beginner", "english", "20", nil, now.Add(-2*time.Hour))
	piano := testutil.CreateCourse(t, repo, prof, "piano", "music", "advanced", "french", "10", nil, now)
	art := testutil.CreateCourse(t, repo, prof, "Art", "art", "beginner", "english", "30", nil, now.Add(-time.Hour))

	tests := []struct {
		name   string
		filter course.QueryFilter
		want   []string
	}{
		{name: "all, default sort", want: []string{piano.ID, guitar.ID, art.ID}},
		{name: "by title", filter: course.QueryFilter{SortBy: course.SortTitleAToZ}, want: []string{art.ID, guitar.ID, piano.ID}},
		{name: "unknown sort", filter: course.QueryFilter{SortBy: "popular"}, want: []string{piano.ID, guitar.ID, art.ID}},
		{name: "category", filter: course.QueryFilter{Categories: []string{"music"}}, want: []string{piano.ID, guitar.ID}},
		{
			name:   "category and level",
			filter: course.QueryFilter{Categories: []string{"music", "art"}, Levels: []string{"beginner"}, SortBy: course.SortPriceHighToLow},
			want:   []string{art.ID, guitar.ID},
		},
		{name: "no match", filter: course.QueryFilter{Languages: []string{"swahili"}}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses, err := svc.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, courseIDs(courses))
		})
	}

	t.Run("by instructor, newest first", func(t *testing.T) {
		other := testutil.CreateUser(t, inmemdb.NewUserRepository(inmemdb.New()), "Other", "other", "other@test.io", "", user.RoleInstructor, true)
		testutil.CreateCourse(t, repo, other, "Bass", "music", "beginner", "english", "5", nil)

		courses, err := svc.QueryByInstructor(ctx, prof.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{piano.ID, art.ID, guitar.ID}, courseIDs(courses))
	})
}

func TestService_AddStudent(t *testing.T) {
	ctx := context.Background()
	svc, repo, prof := setup(t)
	c := testutil.CreateCourse(t, repo, prof, "Guitar", "music", "beginner", "english", "10", nil)
	student := course.StudentSummary{StudentID: "s1", StudentName: "Student", PaidAmount: c.Pricing}

	require.NoError(t, svc.AddStudent(ctx, c.ID, student))
	require.NoError(t, svc.AddStudent(ctx, c.ID, student))

	c, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, c.Students, 1)

	assert.Equal(t, course.ErrNotFound, svc.AddStudent(ctx, "unknown", student))
}

func TestService_Curriculum(t *testing.T) {
	ctx := context.Background()
	svc, repo, prof := setup(t)
	c := testutil.CreateCourse(t, repo, prof, "Guitar", "music", "beginner", "english", "10", testutil.Lectures(3))

	lectures, err := svc.Curriculum(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Curriculum, lectures)

	_, err = svc.Curriculum(ctx, "unknown")
	assert.Equal(t, course.ErrNotFound, err)
}
