// Package errors provides structured error types for the ren boundary.
//
// Every host-side failure carries a Phase (where it happened) and a
// Kind (what went wrong), so callers can match with errors.Is against
// sentinel shapes instead of string-scraping. Script-level evaluation
// errors are deliberately not modeled here: the runtime traps those and
// the engine package decodes them into ScriptError values.
package errors
