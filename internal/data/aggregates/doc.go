// Package aggregates owns the write boundary for stored aggregates: transactions,
// optimistic version checks and the mapping of driver errors onto domain codes.
package aggregates
