// Tagbridge
// Copyright (c) 2026 The Tagbridge Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Tagbridge.
//
// Tagbridge is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Tagbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Tagbridge.  If not, see <http://www.gnu.org/licenses/>.

package tagdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tagbridge/tagbridge/pkg/database"
)

var ErrNullSQL = errors.New("TagDB is not connected")

// DefaultLimit caps history queries called with a non-positive limit.
const DefaultLimit = 25

var _ database.TagDBI = (*TagDB)(nil)

type TagDB struct {
	sql *sql.DB
	ctx context.Context
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*TagDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}
	sqlInstance, err := sql.Open("sqlite3", path+database.SQLiteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := &TagDB{sql: sqlInstance, ctx: ctx}
	if err := db.MigrateUp(); err != nil {
		_ = sqlInstance.Close()
		return nil, err
	}
	return db, nil
}

// SetSQLForTesting injects an existing connection and migrates it.
func (db *TagDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB) error {
	db.sql = sqlDB
	db.ctx = ctx
	return db.MigrateUp()
}

func (db *TagDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *TagDB) Close() error {
	if db.sql == nil {
		return nil
	}
	if err := db.sql.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (db *TagDB) PutAssignment(a *database.Assignment) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlPutAssignment(db.ctx, db.sql, a)
}

func (db *TagDB) GetAssignment(mac string) (database.Assignment, bool, error) {
	if db.sql == nil {
		return database.Assignment{}, false, ErrNullSQL
	}
	return sqlGetAssignment(db.ctx, db.sql, mac)
}

func (db *TagDB) ListAssignments() ([]database.Assignment, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListAssignments(db.ctx, db.sql)
}

func (db *TagDB) DeleteAssignment(mac string) (bool, error) {
	if db.sql == nil {
		return false, ErrNullSQL
	}
	return sqlDeleteAssignment(db.ctx, db.sql, mac)
}

func (db *TagDB) AddCheckIn(c *database.CheckIn) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAddCheckIn(db.ctx, db.sql, c)
}

func (db *TagDB) LatestCheckIns(mac string, limit int) ([]database.CheckIn, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlLatestCheckIns(db.ctx, db.sql, mac, normalizeLimit(limit))
}

func (db *TagDB) AddTransfer(t *database.Transfer) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAddTransfer(db.ctx, db.sql, t)
}

// ListTransfers returns the newest transfers for mac, or for every tag when
// mac is empty.
func (db *TagDB) ListTransfers(mac string, limit int) ([]database.Transfer, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListTransfers(db.ctx, db.sql, mac, normalizeLimit(limit))
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
