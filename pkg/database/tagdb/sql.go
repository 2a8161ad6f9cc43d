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
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run tag database migrations: %w", err)
	}
	return nil
}

func closeStmt(stmt *sql.Stmt) {
	if err := stmt.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close sql statement")
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close sql rows")
	}
}

func sqlPutAssignment(ctx context.Context, db *sql.DB, a *database.Assignment) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into Assignments(
			MAC, DataType, Source, Payload, DataVersion, UpdatedAt
		) values (?, ?, ?, ?, ?, ?)
		on conflict(MAC) do update set
			DataType = excluded.DataType,
			Source = excluded.Source,
			Payload = excluded.Payload,
			DataVersion = excluded.DataVersion,
			UpdatedAt = excluded.UpdatedAt;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare assignment upsert statement: %w", err)
	}
	defer closeStmt(stmt)

	_, err = stmt.ExecContext(ctx,
		a.MAC,
		a.DataType,
		a.Source,
		a.Payload,
		a.DataVersion,
		a.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to execute assignment upsert: %w", err)
	}
	return nil
}

func scanAssignment(scan func(dest ...any) error) (database.Assignment, error) {
	var a database.Assignment
	var updated int64
	if err := scan(&a.MAC, &a.DataType, &a.Source, &a.Payload, &a.DataVersion, &updated); err != nil {
		return a, fmt.Errorf("failed to scan assignment: %w", err)
	}
	a.UpdatedAt = time.UnixMilli(updated)
	return a, nil
}

func sqlGetAssignment(ctx context.Context, db *sql.DB, mac string) (database.Assignment, bool, error) {
	stmt, err := db.PrepareContext(ctx, `
		select MAC, DataType, Source, Payload, DataVersion, UpdatedAt
		from Assignments
		where MAC = ?;
	`)
	if err != nil {
		return database.Assignment{}, false, fmt.Errorf("failed to prepare assignment select: %w", err)
	}
	defer closeStmt(stmt)

	a, err := scanAssignment(stmt.QueryRowContext(ctx, mac).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return database.Assignment{}, false, nil
	} else if err != nil {
		return database.Assignment{}, false, err
	}
	return a, true, nil
}

func sqlListAssignments(ctx context.Context, db *sql.DB) ([]database.Assignment, error) {
	rows, err := db.QueryContext(ctx, `
		select MAC, DataType, Source, Payload, DataVersion, UpdatedAt
		from Assignments
		order by MAC;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer closeRows(rows)

	list := make([]database.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return list, nil
}

func sqlDeleteAssignment(ctx context.Context, db *sql.DB, mac string) (bool, error) {
	stmt, err := db.PrepareContext(ctx, `delete from Assignments where MAC = ?;`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare assignment delete: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx, mac)
	if err != nil {
		return false, fmt.Errorf("failed to execute assignment delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func sqlAddCheckIn(ctx context.Context, db *sql.DB, c *database.CheckIn) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into CheckIns(
			MAC, Time, LQI, RSSI, Temperature, BatteryMV,
			HWType, WakeupReason, SoftwareVersion, Channel
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare check-in insert statement: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx,
		c.MAC,
		c.Time.UnixMilli(),
		c.LQI,
		c.RSSI,
		c.Temperature,
		c.BatteryMV,
		c.HWType,
		c.WakeupReason,
		c.SoftwareVersion,
		c.Channel,
	)
	if err != nil {
		return fmt.Errorf("failed to execute check-in insert: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		c.DBID = id
	}
	return nil
}

func sqlLatestCheckIns(ctx context.Context, db *sql.DB, mac string, limit int) ([]database.CheckIn, error) {
	stmt, err := db.PrepareContext(ctx, `
		select
		DBID, MAC, Time, LQI, RSSI, Temperature, BatteryMV,
		HWType, WakeupReason, SoftwareVersion, Channel
		from CheckIns
		where MAC = ?
		order by DBID desc
		limit ?;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare check-in select: %w", err)
	}
	defer closeStmt(stmt)

	rows, err := stmt.QueryContext(ctx, mac, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer closeRows(rows)

	list := make([]database.CheckIn, 0, limit)
	for rows.Next() {
		var c database.CheckIn
		var ts int64
		err := rows.Scan(
			&c.DBID, &c.MAC, &ts, &c.LQI, &c.RSSI, &c.Temperature, &c.BatteryMV,
			&c.HWType, &c.WakeupReason, &c.SoftwareVersion, &c.Channel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		c.Time = time.UnixMilli(ts)
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate check-ins: %w", err)
	}
	return list, nil
}

func sqlAddTransfer(ctx context.Context, db *sql.DB, t *database.Transfer) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into Transfers(MAC, DataVersion, Time) values (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transfer insert statement: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx, t.MAC, t.DataVersion, t.Time.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to execute transfer insert: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		t.DBID = id
	}
	return nil
}

func sqlListTransfers(ctx context.Context, db *sql.DB, mac string, limit int) ([]database.Transfer, error) {
	stmt, err := db.PrepareContext(ctx, `
		select DBID, MAC, DataVersion, Time
		from Transfers
		where ? = '' or MAC = ?
		order by DBID desc
		limit ?;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transfer select: %w", err)
	}
	defer closeStmt(stmt)

	rows, err := stmt.QueryContext(ctx, mac, mac, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer closeRows(rows)

	list := make([]database.Transfer, 0, limit)
	for rows.Next() {
		var t database.Transfer
		var ts int64
		if err := rows.Scan(&t.DBID, &t.MAC, &t.DataVersion, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		t.Time = time.UnixMilli(ts)
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfers: %w", err)
	}
	return list, nil
}
