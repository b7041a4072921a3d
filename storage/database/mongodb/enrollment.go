package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/elimu/core/enrollment"
)

type (
	purchasedCourseDoc struct {
		CourseID       string    `bson:"course_id"`
		Title          string    `bson:"title"`
		InstructorID   string    `bson:"instructor_id"`
		InstructorName string    `bson:"instructor_name"`
		DateOfPurchase time.Time `bson:"date_of_purchase"`
		CourseImage    string    `bson:"course_image"`
	}

	studentCoursesDoc struct {
		ID      string               `bson:"_id"`
		UserID  string               `bson:"user_id"`
		Courses []purchasedCourseDoc `bson:"courses"`
	}
)

type enrollmentRepository struct {
	coll *mongo.Collection
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{coll: db.collection(enrollmentCollection)}
}

func (repo *enrollmentRepository) GetStudentCourses(ctx context.Context, userID string) (enrollment.StudentCourses, error) {
	var doc studentCoursesDoc
	if err := repo.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return enrollment.StudentCourses{}, enrollment.ErrNotFound
		}
		return enrollment.StudentCourses{}, errors.Wrap(err, "finding student courses")
	}

	sc := enrollment.StudentCourses{
		ID:      doc.ID,
		UserID:  doc.UserID,
		Courses: make([]enrollment.PurchasedCourse, 0, len(doc.Courses)),
	}
	for _, pc := range doc.Courses {
		sc.Courses = append(sc.Courses, enrollment.PurchasedCourse(pc))
	}
	return sc, nil
}

func (repo *enrollmentRepository) AddCourse(ctx context.Context, userID string, pc enrollment.PurchasedCourse) error {
	// create the record first: a conditional $push can't upsert without colliding on user_id
	_, err := repo.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{"_id": uuid.NewString(), "user_id": userID, "courses": bson.A{}}},
		upsert(),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(err, "creating student courses")
	}

	pc.DateOfPurchase = utc(pc.DateOfPurchase)
	_, err = repo.coll.UpdateOne(ctx,
		bson.M{"user_id": userID, "courses.course_id": bson.M{"$ne": pc.CourseID}},
		bson.M{"$push": bson.M{"courses": purchasedCourseDoc(pc)}},
	)
	return errors.Wrap(err, "adding purchased course")
}
