// Package inmemdb provides map-backed repositories used by tests.
package inmemdb

import (
	"sync"

	"github.com/kazadi/maktaba/core/group"
	"github.com/kazadi/maktaba/core/note"
	"github.com/kazadi/maktaba/core/user"
)

type (
	DB struct {
		user  *userTable
		note  *noteTable
		group *groupTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	ratingKey struct {
		userID string
		noteID string
	}

	noteTable struct {
		table     map[string]*note.Note
		ratings   map[ratingKey]int
		reviews   []note.Review
		bookmarks map[ratingKey]struct{}
		mutex     sync.RWMutex
	}

	groupTable struct {
		table map[string]*group.Group
		mutex sync.RWMutex
	}
)

// Reset drops all rows; used between tests.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	db.note.mutex.Lock()
	db.note.table = make(map[string]*note.Note)
	db.note.ratings = make(map[ratingKey]int)
	db.note.reviews = nil
	db.note.bookmarks = make(map[ratingKey]struct{})
	db.note.mutex.Unlock()

	db.group.mutex.Lock()
	db.group.table = make(map[string]*group.Group)
	db.group.mutex.Unlock()
}

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		note: &noteTable{
			table:     make(map[string]*note.Note),
			ratings:   make(map[ratingKey]int),
			bookmarks: make(map[ratingKey]struct{}),
		},
		group: &groupTable{table: make(map[string]*group.Group)},
	}
	return db, nil
}
