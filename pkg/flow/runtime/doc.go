// Package runtime models the availability of an embedded foreign runtime,
// such as an interpreter that backs a storage client. Processors that call
// into it gate each batch on EnsureReady (see processor.RequireReady), while
// the process owns one Runtime value and shuts it down explicitly.
package runtime
