// Package mapper translates external API status payloads into internal job
// status, persistable field updates and client broadcast payloads.
//
// Every function here is pure: no I/O, no hidden state. Missing data is
// reported as a nil result, never as an error; the caller decides whether to
// keep polling.
package mapper
