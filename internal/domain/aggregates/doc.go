// Package aggregates defines the error model shared by the project, task and user aggregates.
//
// Aggregate methods validate before writing any field, so a returned *Error always means the
// receiver is unchanged.
package aggregates
