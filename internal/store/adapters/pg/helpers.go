package pg

import "time"

// nullIfZero mapea un time.Time vacío a NULL.
func nullIfZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
