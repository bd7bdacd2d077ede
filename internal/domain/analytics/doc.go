// Package analytics holds the stateless domain services: derived metrics computed from
// projects, tasks and users. Nothing here mutates its inputs or reads the clock; callers
// pass "now" explicitly so results are reproducible.
package analytics
