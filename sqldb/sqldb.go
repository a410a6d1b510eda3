// Package sqldb is a catalog.Store backed by SQLite.
package sqldb

import (
	"database/sql"
	"strings"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/pkg/errors"
)

const selectBooks = "SELECT id, title, COALESCE(notes, ''), COALESCE(file_url, ''), date_added FROM books"

// Store implements catalog.Store on a SQLite database
type Store struct {
	db    *sql.DB
	clock catalog.Clock
}

// Open opens or creates the SQLite database at 'path' and migrates it to the current schema
func Open(path string, clock catalog.Clock) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open database")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "Failed to enable WAL mode")
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, clock: clock}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func inTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type queryer interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func queryRecords(q queryer, query string, args ...interface{}) ([]catalog.Record, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []catalog.Record{}
	for rows.Next() {
		var r catalog.Record
		if err := rows.Scan(&r.ID, &r.Title, &r.Notes, &r.FileURL, &r.DateAdded); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) All() ([]catalog.Record, error) {
	return queryRecords(s.db, selectBooks+" ORDER BY id")
}

func (s *Store) Get(id int) (catalog.Record, bool, error) {
	records, err := queryRecords(s.db, selectBooks+" WHERE id = ?", id)
	if err != nil || len(records) == 0 {
		return catalog.Record{}, false, err
	}
	return records[0], true, nil
}

func (s *Store) Add(record catalog.Record) (catalog.Record, error) {
	record.ID = 0
	record.Title = strings.TrimSpace(record.Title)
	err := inTx(s.db, func(tx *sql.Tx) error {
		records, err := queryRecords(tx, selectBooks)
		if err != nil {
			return err
		}
		if err := catalog.Validate(records, record); err != nil {
			return err
		}
		record.DateAdded = s.clock.Stamp()
		result, err := tx.Exec(
			"INSERT INTO books (title, notes, file_url, date_added) VALUES (?, ?, ?, ?)",
			record.Title, record.Notes, record.FileURL, record.DateAdded,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		record.ID = int(id)
		return err
	})
	if err != nil {
		return catalog.Record{}, err
	}
	return record, nil
}

func (s *Store) Update(id int, patch catalog.Patch) (catalog.Record, error) {
	var record catalog.Record
	err := inTx(s.db, func(tx *sql.Tx) error {
		records, err := queryRecords(tx, selectBooks)
		if err != nil {
			return err
		}
		found := false
		for _, r := range records {
			if r.ID == id {
				record, found = r, true
				break
			}
		}
		if !found {
			return errors.Wrapf(catalog.ErrNotFound, "ID %d", id)
		}
		if patch.Empty() {
			return nil
		}
		record = patch.Apply(record)
		if err := catalog.Validate(records, record); err != nil {
			return err
		}
		_, err = tx.Exec(
			"UPDATE books SET title = ?, notes = ?, file_url = ? WHERE id = ?",
			record.Title, record.Notes, record.FileURL, id,
		)
		return err
	})
	if err != nil {
		return catalog.Record{}, err
	}
	return record, nil
}

func (s *Store) Remove(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.Exec("DELETE FROM books WHERE id IN ("+placeholders+")", args...)
	return err
}

// Replace deletes every record, resets the ID sequence, then inserts 'records' with their IDs and dates
func (s *Store) Replace(records []catalog.Record) error {
	return inTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM books"); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM sqlite_sequence WHERE name = 'books'"); err != nil {
			return err
		}
		insert, err := tx.Prepare("INSERT INTO books (id, title, notes, file_url, date_added) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer insert.Close()
		for _, r := range records {
			if _, err := insert.Exec(r.ID, r.Title, r.Notes, r.FileURL, r.DateAdded); err != nil {
				return errors.Wrapf(err, "Failed to insert record %d", r.ID)
			}
		}
		return nil
	})
}
