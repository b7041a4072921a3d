package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/order"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/user"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	mongorepos "github.com/trezcool/elimu/storage/database/mongodb"
)

// Engines
const (
	EngineMongoDB = "mongodb"
	EngineMemory  = "memory"
)

// Store gathers the repositories of one database engine and its transactor.
type Store struct {
	Engine      string
	Users       user.Repository
	Courses     course.Repository
	Enrollments enrollment.Repository
	Progress    progress.Repository
	Orders      order.Repository
	Tx          core.Transactor

	mongo *mongorepos.DB
}

// Open connects to the database engine set in conf.Database.Engine and waits for it to be ready.
func Open(ctx context.Context, conf *core.Config) (*Store, error) {
	switch conf.Database.Engine {
	case EngineMemory:
		return NewMemoryStore(inmemdb.New()), nil
	case EngineMongoDB:
		ctx, cancel := context.WithTimeout(ctx, conf.Database.ConnectTimeout)
		defer cancel()

		db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if err = db.Ping(ctx); err != nil {
			_ = db.Close(context.Background())
			return nil, errors.Wrap(err, "pinging database")
		}
		return &Store{
			Engine:      EngineMongoDB,
			Users:       mongorepos.NewUserRepository(db),
			Courses:     mongorepos.NewCourseRepository(db),
			Enrollments: mongorepos.NewEnrollmentRepository(db),
			Progress:    mongorepos.NewProgressRepository(db),
			Orders:      mongorepos.NewOrderRepository(db),
			Tx:          db,
			mongo:       db,
		}, nil
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

// NewMemoryStore returns a Store backed by db.
func NewMemoryStore(db *inmemdb.DB) *Store {
	return &Store{
		Engine:      EngineMemory,
		Users:       inmemdb.NewUserRepository(db),
		Courses:     inmemdb.NewCourseRepository(db),
		Enrollments: inmemdb.NewEnrollmentRepository(db),
		Progress:    inmemdb.NewProgressRepository(db),
		Orders:      inmemdb.NewOrderRepository(db),
		Tx:          db,
	}
}

// EnsureIndexes creates the database indexes. No-op for the memory engine.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if s.mongo == nil {
		return nil
	}
	return errors.Wrap(s.mongo.EnsureIndexes(ctx), "ensuring indexes")
}

func (s *Store) Close(ctx context.Context) error {
	if s.mongo == nil {
		return nil
	}
	return s.mongo.Close(ctx)
}
