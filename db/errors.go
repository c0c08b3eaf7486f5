package db

import (
	"strings"

	"github.com/teranos/fuzzykea/errors"
)

// ErrDatabaseClosed is returned when the store is used after Close,
// typically by a request racing server shutdown.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err is ErrDatabaseClosed or the
// database/sql error for a closed handle.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// ErrNoReference is returned by LoadDataset when nothing has been imported yet
var ErrNoReference = errors.Mark(
	errors.New("no kinase-substrate data imported"),
	errors.ErrNotFound)
