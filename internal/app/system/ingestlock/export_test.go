package ingestlock

import "time"

// SetClock replaces the locker's clock in tests.
func (l *Locker) SetClock(now func() time.Time) { l.now = now }
