// Package chronex parses a cron-expression superset into a typed, immutable
// Expression and computes the occurrences it describes.
//
// An expression string is one of four kinds (§3 Expression.kind):
//
//   - Cron: six-or-five-field Vixie-style cron, with L/W/# specials on the
//     day-of-month and day-of-week fields.
//   - Alias: "@hourly", "@daily", "@weekly", "@monthly", "@yearly"/"@annually",
//     "@midnight" — expanded to an equivalent 5-field cron at parse time.
//   - Interval: "@every 1h" or "@every 1h-2h" (random range).
//   - Once: "@once 2026-06-01T09:00:00Z" or "@once +1h30m" (relative to the
//     instant Parse runs).
//
// Any of the four kinds may be prefixed with "TZ=<IANA id>" and suffixed
// with an options block "{key:value,...}".
//
// This package does not know how to run anything; it only answers "when is
// the next occurrence after this instant". The trigger engine that uses it
// lives in chronex's internal/scheduler package.
package chronex
