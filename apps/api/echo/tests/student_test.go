package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/tests"
)

func Test_studentApi_listCourses(t *testing.T) {
	resetState()
	prof := createInstructor(t, "prof")
	student := createStudent(t, "student")
	c1 := testutil.CreateCourse(t, store.Courses, prof, "Guitar", "music", "beginner", "english", "10", nil)
	c2 := testutil.CreateCourse(t, store.Courses, prof, "Piano", "music", "beginner", "english", "10", nil)
	testutil.Enroll(t, store.Enrollments, student, c1)
	testutil.Enroll(t, store.Enrollments, student, c2)
	testutil.Enroll(t, store.Enrollments, student, c1) // no-op

	runHttpTests(t, []httpTest{
		{name: "auth required", path: "/v1/student/courses", wantCode: http.StatusUnauthorized},
		{name: "nothing purchased", path: "/v1/student/courses", token: getToken(t, createStudent(t, "new")), wantData: marchallList(t)},
	})

	rec := do(http.MethodGet, "/v1/student/courses", getToken(t, student))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got []enrollment.PurchasedCourse
	unmarshal(t, rec, &got)
	require.Len(t, got, 2)
	assert.Equal(t, c1.ID, got[0].CourseID)
	assert.Equal(t, c2.ID, got[1].CourseID)
	assert.Equal(t, prof.DisplayName(), got[0].InstructorName)
}

func Test_studentApi_progress(t *testing.T) {
	resetState()
	prof := createInstructor(t, "prof")
	student := createStudent(t, "student")
	browser := createStudent(t, "browser")
	c := testutil.CreateCourse(t, store.Courses, prof, "Guitar", "music", "beginner", "english", "10", testutil.Lectures(3))
	testutil.Enroll(t, store.Enrollments, student, c)

	token := getToken(t, student)
	progressPath := "/v1/progress/" + c.ID

	getProgress := func(t *testing.T) progress.View {
		rec := do(http.MethodGet, progressPath, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var view progress.View
		unmarshal(t, rec, &view)
		require.True(t, view.IsPurchased)
		require.NotNil(t, view.Details)
		return view
	}
	markViewed := func(t *testing.T, lectureID string) progress.CourseProgress {
		rec := do(http.MethodPost, "/v1/progress/mark-viewed", token, marchallObj(t, progress.MarkViewed{CourseID: c.ID, LectureID: lectureID}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p progress.CourseProgress
		unmarshal(t, rec, &p)
		return p
	}

	runHttpTests(t, []httpTest{
		{name: "auth required", path: progressPath, wantCode: http.StatusUnauthorized},
		{name: "not purchased", path: progressPath, token: getToken(t, browser), wantData: []byte(`{"is_purchased":false}`)},
		{
			name: "mark-viewed: required fields", method: http.MethodPost, path: "/v1/progress/mark-viewed", token: token,
			body: marchallObj(t, progress.MarkViewed{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"course_id":  "this field is required",
				"lecture_id": "this field is required",
			}),
		},
		{
			name: "mark-viewed: unknown course", method: http.MethodPost, path: "/v1/progress/mark-viewed", token: token,
			body: marchallObj(t, progress.MarkViewed{CourseID: "unknown", LectureID: "L1"}), wantCode: http.StatusNotFound,
		},
		{
			name: "reset: nothing to reset", method: http.MethodPost, path: "/v1/progress/reset", token: token,
			body: marchallObj(t, progress.Reset{CourseID: c.ID}), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "progress not found"}),
		},
	})

	t.Run("not started", func(t *testing.T) {
		view := getProgress(t)
		assert.Equal(t, c.ID, view.CourseDetails.ID)
		assert.Len(t, view.CourseDetails.Curriculum, 3)
		assert.Equal(t, "https://cdn.test/L3.mp4", view.CourseDetails.Curriculum[2].VideoURL)
		assert.Empty(t, view.Progress)
		assert.False(t, view.Completed)
		assert.Equal(t, 0, view.NextLecture)
	})

	t.Run("L1 then resume at L2", func(t *testing.T) {
		p := markViewed(t, "L1")
		assert.False(t, p.Completed)
		assert.Len(t, p.LecturesProgress, 1)

		view := getProgress(t)
		assert.Equal(t, 1, view.NextLecture)
	})

	t.Run("L3 then resume at the first unviewed lecture", func(t *testing.T) {
		p := markViewed(t, "L3")
		assert.False(t, p.Completed)

		view := getProgress(t)
		assert.Equal(t, 1, view.NextLecture)
	})

	t.Run("viewing again is idempotent", func(t *testing.T) {
		p := markViewed(t, "L3")
		assert.Len(t, p.LecturesProgress, 2)
		assert.False(t, p.Completed)
	})

	t.Run("L2 completes the course", func(t *testing.T) {
		p := markViewed(t, "L2")
		assert.True(t, p.Completed)
		require.NotNil(t, p.CompletionDate)

		view := getProgress(t)
		assert.True(t, view.Completed)
		assert.Len(t, view.Progress, 3)
		assert.Equal(t, 0, view.NextLecture)
	})

	t.Run("reset", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/progress/reset", token, marchallObj(t, progress.Reset{CourseID: c.ID}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p progress.CourseProgress
		unmarshal(t, rec, &p)
		assert.False(t, p.Completed)
		assert.Nil(t, p.CompletionDate)
		assert.Empty(t, p.LecturesProgress)

		view := getProgress(t)
		assert.False(t, view.Completed)
		assert.Empty(t, view.Progress)
		assert.Equal(t, 0, view.NextLecture)
	})
}
