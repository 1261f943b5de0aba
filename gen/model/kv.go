package model

import (
	"time"
)

type Kv struct {
	Key       string `sql:"primary_key"`
	Value     string
	UpdatedAt time.Time
}
