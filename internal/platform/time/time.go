// Package time holds time helpers shared across services
package time

import "time"

// Ptr returns a pointer to t, or nil when t is the zero time.
// Useful for nullable started_at/finished_at columns
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
