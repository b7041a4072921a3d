package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/order"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/user"
)

// table is one collection of documents. Writes go through put and remove so that a transaction can undo them.
type table[V any] struct {
	owner *DB
	mutex sync.RWMutex
	table map[string]V
}

type (
	userTable       = table[user.User]                 // {id: User}
	courseTable     = table[course.Course]             // {id: Course}
	enrollmentTable = table[enrollment.StudentCourses] // {userID: StudentCourses}
	progressTable   = table[progress.CourseProgress]   // {userID/courseID: CourseProgress}
	orderTable      = table[order.Order]               // {id: Order}
)

func newTable[V any](owner *DB) *table[V] {
	return &table[V]{owner: owner, table: make(map[string]V)}
}

// put stores v under key. The caller holds t.mutex.
func (t *table[V]) put(ctx context.Context, key string, v V) {
	t.journal(ctx, key)
	t.table[key] = v
}

// remove deletes key. The caller holds t.mutex.
func (t *table[V]) remove(ctx context.Context, key string) {
	t.journal(ctx, key)
	delete(t.table, key)
}

// journal records how to restore key in the undo log of the transaction carried by ctx, if any.
func (t *table[V]) journal(ctx context.Context, key string) {
	log, ok := ctx.Value(undoLogKey{}).(*undoLog)
	if !ok || log.owner != t.owner {
		return
	}
	old, existed := t.table[key]
	log.add(func() {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		if existed {
			t.table[key] = old
		} else {
			delete(t.table, key)
		}
	})
}

func (t *table[V]) reset() {
	t.mutex.Lock()
	t.table = make(map[string]V)
	t.mutex.Unlock()
}

type undoLogKey struct{}

// undoLog holds the reverse operations of the writes made by one transaction.
type undoLog struct {
	owner *DB
	mu    sync.Mutex
	steps []func()
}

func (l *undoLog) add(step func()) {
	l.mu.Lock()
	l.steps = append(l.steps, step)
	l.mu.Unlock()
}

func (l *undoLog) rollback() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.steps) - 1; i >= 0; i-- {
		l.steps[i]()
	}
	l.steps = nil
}

// DB is an in-memory document store for development and tests.
// Stored values are never mutated in place: repositories clone on read and replace on write.
type DB struct {
	txMutex    sync.Mutex
	user       *table[user.User]
	course     *table[course.Course]
	enrollment *table[enrollment.StudentCourses]
	progress   *table[progress.CourseProgress]
	order      *table[order.Order]
}

var _ core.Transactor = (*DB)(nil)

func New() *DB {
	db := &DB{}
	db.user = newTable[user.User](db)
	db.course = newTable[course.Course](db)
	db.enrollment = newTable[enrollment.StudentCourses](db)
	db.progress = newTable[progress.CourseProgress](db)
	db.order = newTable[order.Order](db)
	return db
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.reset()
	db.course.reset()
	db.enrollment.reset()
	db.progress.reset()
	db.order.reset()
}

// WithinTransaction serializes transactions. If fn fails, the writes made through the ctx passed to fn are
// undone, newest first; writes made outside the transaction are kept.
// core.OnCommit hooks run once fn has succeeded.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db.txMutex.Lock()
	defer db.txMutex.Unlock()

	log := &undoLog{owner: db}
	txCtx, hooks := core.WithCommitHooks(context.WithValue(ctx, undoLogKey{}, log))
	if err := fn(txCtx); err != nil {
		log.rollback()
		return err
	}
	hooks.Run(ctx)
	return nil
}

// OrderCount returns the number of stored orders.
func (db *DB) OrderCount() int {
	db.order.mutex.RLock()
	defer db.order.mutex.RUnlock()
	return len(db.order.table)
}
