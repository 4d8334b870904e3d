// Package reminder runs the notification scheduler.
//
// Once per tick (1 second by default) the service pulls every calendar event
// and notice rule from its Source, merges in records pushed by live clients,
// evaluates each rule against the current instant, and broadcasts a
// notification payload for every rule that fires. A bounded identity cache
// collapses repeat firings of the same notification within the same clock
// minute.
//
// A rule that fails to evaluate is skipped with a log line; it never aborts
// the tick or the schedule. A Source failure yields an empty pull for that
// tick only.
package reminder
