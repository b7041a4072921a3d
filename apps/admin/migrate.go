package main

import (
	"context"
	"time"
)

const migrateTimeout = time.Minute

// migrate creates the database indexes. Existing indexes are left untouched.
func (cli *commandLine) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	return cli.store.EnsureIndexes(ctx)
}
