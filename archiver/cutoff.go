// SPDX-License-Identifier: GPL-3.0-or-later
package archiver

import "time"

// Cutoff returns the start of the calendar day exactly retentionDays
// before now, in now's location. The value is computed once per run and
// reused for every search so the notion of "old" stays fixed even while
// wall-clock time advances during a long run.
func Cutoff(now time.Time, retentionDays int) time.Time {
	day := now.AddDate(0, 0, -retentionDays)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}
