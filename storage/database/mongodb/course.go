package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/elimu/core/course"
)

type (
	lectureDoc struct {
		ID          string `bson:"id"`
		Title       string `bson:"title"`
		VideoURL    string `bson:"video_url"`
		PublicID    string `bson:"public_id"`
		FreePreview bool   `bson:"free_preview"`
	}

	studentDoc struct {
		StudentID    string               `bson:"student_id"`
		StudentName  string               `bson:"student_name"`
		StudentEmail string               `bson:"student_email"`
		PaidAmount   primitive.Decimal128 `bson:"paid_amount"`
	}

	courseDoc struct {
		ID              string               `bson:"_id"`
		InstructorID    string               `bson:"instructor_id"`
		InstructorName  string               `bson:"instructor_name"`
		Date            time.Time            `bson:"date"`
		Title           string               `bson:"title"`
		Category        string               `bson:"category"`
		Level           string               `bson:"level"`
		PrimaryLanguage string               `bson:"primary_language"`
		Subtitle        string               `bson:"subtitle"`
		Description     string               `bson:"description"`
		Image           string               `bson:"image"`
		WelcomeMessage  string               `bson:"welcome_message"`
		Pricing         primitive.Decimal128 `bson:"pricing"`
		Objectives      string               `bson:"objectives"`
		Students        []studentDoc         `bson:"students"`
		Curriculum      []lectureDoc         `bson:"curriculum"`
		IsPublished     bool                 `bson:"is_published"`
		UpdatedAt       time.Time            `bson:"updated_at"`
	}
)

// titleCollation compares titles case-insensitively.
var titleCollation = &options.Collation{Locale: "en", Strength: 2}

type courseRepository struct {
	coll *mongo.Collection
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{coll: db.collection(courseCollection)}
}

func (repo *courseRepository) toStudentDoc(s course.StudentSummary) studentDoc {
	return studentDoc{
		StudentID:    s.StudentID,
		StudentName:  s.StudentName,
		StudentEmail: s.StudentEmail,
		PaidAmount:   toDecimal128(s.PaidAmount),
	}
}

func (repo *courseRepository) toDoc(c course.Course) courseDoc {
	doc := courseDoc{
		ID:              c.ID,
		InstructorID:    c.InstructorID,
		InstructorName:  c.InstructorName,
		Date:            utc(c.Date),
		Title:           c.Title,
		Category:        c.Category,
		Level:           c.Level,
		PrimaryLanguage: c.PrimaryLanguage,
		Subtitle:        c.Subtitle,
		Description:     c.Description,
		Image:           c.Image,
		WelcomeMessage:  c.WelcomeMessage,
		Pricing:         toDecimal128(c.Pricing),
		Objectives:      c.Objectives,
		Students:        make([]studentDoc, 0, len(c.Students)),
		Curriculum:      make([]lectureDoc, 0, len(c.Curriculum)),
		IsPublished:     c.IsPublished,
		UpdatedAt:       utc(c.UpdatedAt),
	}
	for _, s := range c.Students {
		doc.Students = append(doc.Students, repo.toStudentDoc(s))
	}
	for _, lec := range c.Curriculum {
		doc.Curriculum = append(doc.Curriculum, lectureDoc(lec))
	}
	return doc
}

func (repo *courseRepository) fromDoc(doc courseDoc) course.Course {
	c := course.Course{
		ID:              doc.ID,
		InstructorID:    doc.InstructorID,
		InstructorName:  doc.InstructorName,
		Date:            doc.Date,
		Title:           doc.Title,
		Category:        doc.Category,
		Level:           doc.Level,
		PrimaryLanguage: doc.PrimaryLanguage,
		Subtitle:        doc.Subtitle,
		Description:     doc.Description,
		Image:           doc.Image,
		WelcomeMessage:  doc.WelcomeMessage,
		Pricing:         fromDecimal128(doc.Pricing),
		Objectives:      doc.Objectives,
		Students:        make([]course.StudentSummary, 0, len(doc.Students)),
		Curriculum:      make([]course.Lecture, 0, len(doc.Curriculum)),
		IsPublished:     doc.IsPublished,
		UpdatedAt:       doc.UpdatedAt,
	}
	for _, s := range doc.Students {
		c.Students = append(c.Students, course.StudentSummary{
			StudentID:    s.StudentID,
			StudentName:  s.StudentName,
			StudentEmail: s.StudentEmail,
			PaidAmount:   fromDecimal128(s.PaidAmount),
		})
	}
	for _, lec := range doc.Curriculum {
		c.Curriculum = append(c.Curriculum, course.Lecture(lec))
	}
	return c
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if _, err := repo.coll.InsertOne(ctx, repo.toDoc(c)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var doc courseDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return repo.fromDoc(doc), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	doc := repo.toDoc(c)
	set := bson.M{
		"instructor_id":    doc.InstructorID,
		"instructor_name":  doc.InstructorName,
		"date":             doc.Date,
		"title":            doc.Title,
		"category":         doc.Category,
		"level":            doc.Level,
		"primary_language": doc.PrimaryLanguage,
		"subtitle":         doc.Subtitle,
		"description":      doc.Description,
		"image":            doc.Image,
		"welcome_message":  doc.WelcomeMessage,
		"pricing":          doc.Pricing,
		"objectives":       doc.Objectives,
		"curriculum":       doc.Curriculum,
		"is_published":     doc.IsPublished,
		"updated_at":       doc.UpdatedAt,
	}

	// the roster is only written by AddStudent
	var updated courseDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": c.ID}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return repo.fromDoc(updated), nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if res.DeletedCount == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	query := bson.M{}
	if len(filter.Categories) > 0 {
		query["category"] = bson.M{"$in": filter.Categories}
	}
	if len(filter.Levels) > 0 {
		query["level"] = bson.M{"$in": filter.Levels}
	}
	if len(filter.Languages) > 0 {
		query["primary_language"] = bson.M{"$in": filter.Languages}
	}
	if filter.InstructorID != "" {
		query["instructor_id"] = filter.InstructorID
	}

	opts := options.Find()
	switch filter.SortBy {
	case course.SortPriceHighToLow:
		opts.SetSort(bson.D{{Key: "pricing", Value: -1}, {Key: "_id", Value: 1}})
	case course.SortTitleAToZ:
		opts.SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}).SetCollation(titleCollation)
	case course.SortTitleZToA:
		opts.SetSort(bson.D{{Key: "title", Value: -1}, {Key: "_id", Value: 1}}).SetCollation(titleCollation)
	default:
		opts.SetSort(bson.D{{Key: "pricing", Value: 1}, {Key: "_id", Value: 1}})
	}

	cur, err := repo.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	var docs []courseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}

	courses := make([]course.Course, 0, len(docs))
	for _, doc := range docs {
		courses = append(courses, repo.fromDoc(doc))
	}
	return courses, nil
}

func (repo *courseRepository) AddStudent(ctx context.Context, courseID string, student course.StudentSummary) error {
	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": courseID, "students.student_id": bson.M{"$ne": student.StudentID}},
		bson.M{"$push": bson.M{"students": repo.toStudentDoc(student)}},
	)
	if err != nil {
		return errors.Wrap(err, "adding student")
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// either the student is already on the roster or the course does not exist
	n, err := repo.coll.CountDocuments(ctx, bson.M{"_id": courseID}, options.Count().SetLimit(1))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	if n == 0 {
		return course.ErrNotFound
	}
	return nil
}
