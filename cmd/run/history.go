package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const tableHistory = "history"

// historyDB stores one row per committed iteration of a run.
type historyDB struct {
	db *sql.DB
}

func newHistoryDB(dbPath string) (*historyDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run TEXT,
		iteration INTEGER,
		step REAL,
		norm REAL,
		milliseconds REAL,
		PRIMARY KEY (run, iteration))`, tableHistory)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}

	return &historyDB{db: db}, nil
}

func (h *historyDB) Close() error {
	return h.db.Close()
}

func (h *historyDB) insert(run string, iteration int, step, norm float64, dur time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (run, iteration, step, norm, milliseconds) VALUES (?, ?, ?, ?, ?)`, tableHistory)
	if _, err := h.db.ExecContext(ctx, sqlStr, run, iteration, step, norm, float64(dur.Microseconds())/1e3); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
