package storage

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/goserg/clubconnect/internal/migrate"
)

// Open connects to the sqlite file and brings its schema up to date.
func Open(fileName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", buildSource(fileName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}
	err = migrate.Up(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func buildSource(fileName string) string {
	return "file:" + fileName + "?cache=shared&_busy_timeout=5000"
}
