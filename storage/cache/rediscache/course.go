package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

const courseKeyPrefix = "course:"

// NewClient connects to the redis server described by conf.Cache.
func NewClient(ctx context.Context, conf *core.Config) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        conf.Cache.Addr,
		Password:    conf.Cache.Password,
		DB:          conf.Cache.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return rdb, nil
}

// courseRepository is a read-through cache of single courses in front of another course.Repository.
// Cache failures are logged and fall through to the wrapped repository.
type courseRepository struct {
	course.Repository
	rdb    goredis.UniversalClient
	ttl    time.Duration
	logger core.Logger
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(repo course.Repository, rdb goredis.UniversalClient, ttl time.Duration, logger core.Logger) course.Repository {
	return &courseRepository{
		Repository: repo,
		rdb:        rdb,
		ttl:        ttl,
		logger:     logger,
	}
}

func courseKey(id string) string {
	return courseKeyPrefix + id
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	raw, err := repo.rdb.Get(ctx, courseKey(id)).Bytes()
	switch {
	case err == nil:
		var c course.Course
		if err = json.Unmarshal(raw, &c); err == nil {
			return c, nil
		}
		repo.logger.Warn("rediscache: decoding course "+id, err)
	case err != goredis.Nil:
		repo.logger.Warn("rediscache: getting course "+id, err)
	}

	c, err := repo.Repository.GetCourse(ctx, id)
	if err != nil {
		return course.Course{}, err
	}
	repo.set(ctx, c)
	return c, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	updated, err := repo.Repository.UpdateCourse(ctx, c)
	repo.invalidate(ctx, c.ID)
	return updated, err
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	err := repo.Repository.DeleteCourse(ctx, id)
	repo.invalidate(ctx, id)
	return err
}

func (repo *courseRepository) AddStudent(ctx context.Context, courseID string, student course.StudentSummary) error {
	err := repo.Repository.AddStudent(ctx, courseID, student)
	repo.invalidate(ctx, courseID)
	return err
}

func (repo *courseRepository) set(ctx context.Context, c course.Course) {
	raw, err := json.Marshal(c)
	if err != nil {
		repo.logger.Warn("rediscache: encoding course "+c.ID, err)
		return
	}
	if err = repo.rdb.Set(ctx, courseKey(c.ID), raw, repo.ttl).Err(); err != nil {
		repo.logger.Warn("rediscache: caching course "+c.ID, err)
	}
}

// invalidate drops the cached course once the transaction carried by ctx has committed, or right away outside one.
// Dropping it earlier would let a concurrent read cache the pre-commit course again.
func (repo *courseRepository) invalidate(ctx context.Context, id string) {
	if id == "" {
		return
	}
	core.OnCommit(ctx, func(ctx context.Context) {
		if err := repo.rdb.Del(ctx, courseKey(id)).Err(); err != nil {
			repo.logger.Warn("rediscache: invalidating course "+id, err)
		}
	})
}
