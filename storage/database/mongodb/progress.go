package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/elimu/core/progress"
)

type (
	lectureProgressDoc struct {
		LectureID  string    `bson:"lecture_id"`
		Viewed     bool      `bson:"viewed"`
		DateViewed time.Time `bson:"date_viewed"`
	}

	courseProgressDoc struct {
		ID               string               `bson:"_id"`
		UserID           string               `bson:"user_id"`
		CourseID         string               `bson:"course_id"`
		Completed        bool                 `bson:"completed"`
		CompletionDate   *time.Time           `bson:"completion_date"`
		LecturesProgress []lectureProgressDoc `bson:"lectures_progress"`
	}
)

type progressRepository struct {
	coll *mongo.Collection
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{coll: db.collection(progressCollection)}
}

func (repo *progressRepository) toDoc(p progress.CourseProgress) courseProgressDoc {
	doc := courseProgressDoc{
		ID:               p.ID,
		UserID:           p.UserID,
		CourseID:         p.CourseID,
		Completed:        p.Completed,
		LecturesProgress: make([]lectureProgressDoc, 0, len(p.LecturesProgress)),
	}
	if p.CompletionDate != nil {
		t := utc(*p.CompletionDate)
		doc.CompletionDate = &t
	}
	for _, lp := range p.LecturesProgress {
		lp.DateViewed = utc(lp.DateViewed)
		doc.LecturesProgress = append(doc.LecturesProgress, lectureProgressDoc(lp))
	}
	return doc
}

func (repo *progressRepository) fromDoc(doc courseProgressDoc) progress.CourseProgress {
	p := progress.CourseProgress{
		ID:               doc.ID,
		UserID:           doc.UserID,
		CourseID:         doc.CourseID,
		Completed:        doc.Completed,
		CompletionDate:   doc.CompletionDate,
		LecturesProgress: make([]progress.LectureProgress, 0, len(doc.LecturesProgress)),
	}
	for _, lp := range doc.LecturesProgress {
		p.LecturesProgress = append(p.LecturesProgress, progress.LectureProgress(lp))
	}
	return p
}

func (repo *progressRepository) GetProgress(ctx context.Context, userID, courseID string) (progress.CourseProgress, error) {
	var doc courseProgressDoc
	if err := repo.coll.FindOne(ctx, bson.M{"user_id": userID, "course_id": courseID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return progress.CourseProgress{}, progress.ErrNotFound
		}
		return progress.CourseProgress{}, errors.Wrap(err, "finding progress")
	}
	return repo.fromDoc(doc), nil
}

func (repo *progressRepository) SaveProgress(ctx context.Context, p progress.CourseProgress) (progress.CourseProgress, error) {
	doc := repo.toDoc(p)
	set := bson.M{
		"completed":         doc.Completed,
		"completion_date":   doc.CompletionDate,
		"lectures_progress": doc.LecturesProgress,
	}

	var saved courseProgressDoc
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := repo.coll.FindOneAndUpdate(ctx,
		bson.M{"user_id": p.UserID, "course_id": p.CourseID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"_id": doc.ID}},
		opts,
	).Decode(&saved)
	if err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "saving progress")
	}
	return repo.fromDoc(saved), nil
}
