package rediscache_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/user"
	logsvc "github.com/trezcool/elimu/services/logger"
	"github.com/trezcool/elimu/storage/cache/rediscache"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	"github.com/trezcool/elimu/tests"
)

// unreachable redis server
const deadAddr = "127.0.0.1:1"

func TestNewClient_unreachable(t *testing.T) {
	conf := &core.Config{Cache: core.CacheConfig{Enabled: true, Addr: deadAddr}}
	_, err := rediscache.NewClient(context.Background(), conf)
	assert.Error(t, err)
}

func TestCourseRepository_fallsThrough(t *testing.T) {
	ctx := context.Background()
	conf := &core.Config{}
	logger := logsvc.NewRollbarLogger(zap.NewNop().Sugar(), conf)
	logger.Enable(false)

	rdb := goredis.NewClient(&goredis.Options{Addr: deadAddr, MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()

	db := inmemdb.New()
	prof := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Prof", "prof", "prof@test.io", "", user.RoleInstructor, true)
	repo := rediscache.NewCourseRepository(inmemdb.NewCourseRepository(db), rdb, time.Minute, logger)
	c := testutil.CreateCourse(t, repo, prof, "Guitar", "music", "beginner", "english", "10", testutil.Lectures(2))

	got, err := repo.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	require.NoError(t, repo.AddStudent(ctx, c.ID, course.StudentSummary{StudentID: "s1"}))
	got, err = repo.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.HasStudent("s1"))

	require.NoError(t, repo.DeleteCourse(ctx, c.ID))
	_, err = repo.GetCourse(ctx, c.ID)
	assert.Equal(t, course.ErrNotFound, err)
}

// cmdRecorder answers every command locally, as an empty cache, and records the DEL keys.
type cmdRecorder struct {
	mu   sync.Mutex
	dels []string
}

func (r *cmdRecorder) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("offline")
	}
}

func (r *cmdRecorder) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		switch cmd.Name() {
		case "get":
			return goredis.Nil
		case "del":
			r.mu.Lock()
			r.dels = append(r.dels, cmd.Args()[1].(string))
			r.mu.Unlock()
		}
		return nil
	}
}

func (r *cmdRecorder) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func (r *cmdRecorder) deleted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dels...)
}

func TestCourseRepository_invalidatesAfterCommit(t *testing.T) {
	ctx := context.Background()
	conf := &core.Config{}
	logger := logsvc.NewRollbarLogger(zap.NewNop().Sugar(), conf)
	logger.Enable(false)

	rdb := goredis.NewClient(&goredis.Options{Addr: deadAddr, MaxRetries: -1})
	defer rdb.Close()
	rec := &cmdRecorder{}
	rdb.AddHook(rec)

	db := inmemdb.New()
	prof := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Prof", "prof", "prof@test.io", "", user.RoleInstructor, true)
	repo := rediscache.NewCourseRepository(inmemdb.NewCourseRepository(db), rdb, time.Minute, logger)
	c := testutil.CreateCourse(t, repo, prof, "Guitar", "music", "beginner", "english", "10", testutil.Lectures(2))
	key := "course:" + c.ID

	t.Run("outside a transaction", func(t *testing.T) {
		require.NoError(t, repo.AddStudent(ctx, c.ID, course.StudentSummary{StudentID: "s0"}))
		assert.Equal(t, []string{key}, rec.deleted())
	})

	t.Run("committed transaction", func(t *testing.T) {
		before := len(rec.deleted())
		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := repo.AddStudent(ctx, c.ID, course.StudentSummary{StudentID: "s1"}); err != nil {
				return err
			}
			c.Title = "Guitar 101"
			if _, err := repo.UpdateCourse(ctx, c); err != nil {
				return err
			}
			assert.Len(t, rec.deleted(), before, "kept until commit")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{key, key}, rec.deleted()[before:])
	})

	t.Run("rolled back transaction", func(t *testing.T) {
		before := len(rec.deleted())
		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := repo.AddStudent(ctx, c.ID, course.StudentSummary{StudentID: "s2"}); err != nil {
				return err
			}
			return errors.New("tx failed")
		})
		require.Error(t, err)
		assert.Len(t, rec.deleted(), before)

		got, err := repo.GetCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, got.HasStudent("s2"))
	})
}
