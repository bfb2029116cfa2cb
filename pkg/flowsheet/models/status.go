package models

import "strings"

// Status is the internal status code of a process node.
type Status string

const (
	// StatusDone marks finished work.
	StatusDone Status = "done"
	// StatusWaiting marks work waiting on an answer from someone else.
	StatusWaiting Status = "waiting"
	// StatusBlocked marks work that cannot proceed.
	StatusBlocked Status = "blocked"
	// StatusPending marks work not yet started.
	StatusPending Status = "pending"
)

// Statuses lists every internal status code in canonical order.
var Statuses = []Status{StatusDone, StatusWaiting, StatusBlocked, StatusPending}

// Valid reports whether s is one of the internal status codes.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Next returns the status following s in canonical order, wrapping around.
func (s Status) Next() Status {
	for i, known := range Statuses {
		if s == known {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return Statuses[0]
}

// ParseStatus resolves an internal status code, ignoring case and surrounding space.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}
