// Package notify carries "something changed" signals for the tables a day
// plan is built from. Changes carry no payload guarantees beyond the table,
// the owning user and the operation.
package notify

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("notify: bus closed")

// Op is the kind of change.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Change describes a write to a source table by any actor.
type Change struct {
	Table    string    `json:"table"`
	UserID   string    `json:"user_id"`
	Op       Op        `json:"op"`
	RecordID string    `json:"record_id,omitempty"`
	At       time.Time `json:"at"`
}

// Filter selects changes. Empty Tables matches every table; empty UserID
// matches every user.
type Filter struct {
	Tables []string
	UserID string
}

// Match reports whether c passes the filter.
func (f Filter) Match(c Change) bool {
	if f.UserID != "" && c.UserID != f.UserID {
		return false
	}
	if len(f.Tables) == 0 {
		return true
	}
	for _, t := range f.Tables {
		if t == c.Table {
			return true
		}
	}
	return false
}

// Bus publishes and fans out changes. The cancel func returned by Subscribe
// must be called to release the subscription; it closes the channel.
type Bus interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(ctx context.Context, f Filter) (<-chan Change, func(), error)
	Close() error
}
