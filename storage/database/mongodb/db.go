package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/elimu/core"
)

// Collections
const (
	userCollection       = "users"
	courseCollection     = "courses"
	enrollmentCollection = "student_courses"
	progressCollection   = "course_progress"
	orderCollection      = "orders"
)

// DB wraps a connected mongo client and the app database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ core.Transactor = (*DB)(nil)

// Open connects to the database described by conf.Database. Call Ping to wait for the server.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetConnectTimeout(conf.Database.ConnectTimeout).
		SetAppName(conf.AppName)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	return &DB{client: client, db: client.Database(conf.Database.Name)}, nil
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func (db *DB) Ping(ctx context.Context) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// WithinTransaction runs fn in a session transaction. Repositories pick the session up from the ctx passed to fn.
// core.OnCommit hooks run once the transaction has committed. Requires a replica set.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := db.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	defer sess.EndSession(ctx)

	var hooks *core.CommitHooks
	_, err = sess.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		// the callback is retried on transient errors: hooks of a failed attempt are dropped
		var txCtx context.Context
		txCtx, hooks = core.WithCommitHooks(sessCtx)
		return nil, fn(txCtx)
	})
	if err != nil {
		return err
	}
	hooks.Run(ctx)
	return nil
}

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := func(keys ...string) mongo.IndexModel {
		d := make(bson.D, 0, len(keys))
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: d, Options: options.Index().SetUnique(true)}
	}
	index := func(key string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}}
	}

	indexes := map[string][]mongo.IndexModel{
		userCollection:       {unique("username"), unique("email")},
		courseCollection:     {index("instructor_id"), index("category"), index("level"), index("primary_language")},
		enrollmentCollection: {unique("user_id")},
		progressCollection:   {unique("user_id", "course_id")},
		orderCollection:      {index("user_id")},
	}
	for coll, models := range indexes {
		if _, err := db.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return d128
}

func fromDecimal128(d128 primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(d128.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// utc drops the monotonic clock and location: mongo stores milliseconds in UTC.
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}

func upsert() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}
