// Package core defines the storage port and the shared vocabulary of the
// world store. It holds no state of its own.
package core

import (
	"context"
	"fmt"
)

// Document is an opaque structured value stored at a logical path.
// No schema is enforced at this level.
type Document map[string]any

// String returns the string stored under key, or "" when the key is absent
// or holds a different type.
func (d Document) String(key string) string {
	if d == nil {
		return ""
	}
	s, _ := d[key].(string)
	return s
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return Document(cloneValue(map[string]any(t)).(map[string]any))
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, val := range t {
			l[i] = cloneValue(val)
		}
		return l
	default:
		return v
	}
}

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a document observed by a Watchable storage.
type Event struct {
	Type      EventType
	Path      string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Path)
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (commit
// message) down to storages that record history.
const ChangeReasonKey contextKey = "change_reason"

// ChangeReason returns the change reason carried by ctx, if any.
func ChangeReason(ctx context.Context) string {
	if v, ok := ctx.Value(ChangeReasonKey).(string); ok {
		return v
	}
	return ""
}
