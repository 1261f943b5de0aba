// Package model holds the row types scanned from the tables in gen/table.
package model

import (
	"time"
)

type Documents struct {
	Collection string `sql:"primary_key"`
	ID         string `sql:"primary_key"`
	Data       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
