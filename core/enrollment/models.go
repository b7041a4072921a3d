package enrollment

import "time"

// PurchasedCourse is the denormalized summary of a course a student bought.
type PurchasedCourse struct {
	CourseID       string    `json:"course_id"`
	Title          string    `json:"title"`
	InstructorID   string    `json:"instructor_id"`
	InstructorName string    `json:"instructor_name"`
	DateOfPurchase time.Time `json:"date_of_purchase"` // UTC
	CourseImage    string    `json:"course_image"`
}

// StudentCourses is the enrollment record of a user: one per user, never deleted.
type StudentCourses struct {
	ID      string            `json:"id"`
	UserID  string            `json:"user_id"`
	Courses []PurchasedCourse `json:"courses"`
}

// Has reports whether the course was purchased. Membership is by course identity.
func (sc StudentCourses) Has(courseID string) bool {
	for _, pc := range sc.Courses {
		if pc.CourseID == courseID {
			return true
		}
	}
	return false
}
