package mapview

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the severity of a notification.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Error   Kind = "error"
)

// Notification is a short lived message for the user.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// notifications expire a fixed delay after their creation.
// Expired entries are dropped when the list is read.
type notifications struct {
	ttl  time.Duration
	list []Notification
}

func (ns *notifications) add(now time.Time, kind Kind, message string) Notification {
	n := Notification{ID: uuid.NewString(), Message: message, Kind: kind, CreatedAt: now}
	ns.list = append(ns.list, n)
	return n
}

// live prunes the expired notifications and returns a copy of the others
func (ns *notifications) live(now time.Time) []Notification {
	kept := ns.list[:0]
	for _, n := range ns.list {
		if now.Sub(n.CreatedAt) < ns.ttl {
			kept = append(kept, n)
		}
	}
	ns.list = kept
	return append([]Notification(nil), kept...)
}
