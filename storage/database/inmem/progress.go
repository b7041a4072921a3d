package inmemdb

import (
	"context"

	"github.com/trezcool/elimu/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func progressKey(userID, courseID string) string {
	return userID + "/" + courseID
}

func cloneProgress(p progress.CourseProgress) progress.CourseProgress {
	p.LecturesProgress = append([]progress.LectureProgress{}, p.LecturesProgress...)
	if p.CompletionDate != nil {
		t := *p.CompletionDate
		p.CompletionDate = &t
	}
	return p
}

func (repo *progressRepository) GetProgress(_ context.Context, userID, courseID string) (progress.CourseProgress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[progressKey(userID, courseID)]; ok {
		return cloneProgress(p), nil
	}
	return progress.CourseProgress{}, progress.ErrNotFound
}

func (repo *progressRepository) SaveProgress(ctx context.Context, p progress.CourseProgress) (progress.CourseProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := progressKey(p.UserID, p.CourseID)
	if orig, ok := repo.db.table[key]; ok {
		p.ID = orig.ID
	}
	repo.db.put(ctx, key, cloneProgress(p))
	return cloneProgress(p), nil
}
