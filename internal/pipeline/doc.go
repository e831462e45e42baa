// Package pipeline runs extraction followed by generation for one file or
// one pasted text at a time.
//
// A single ProcessingSlot admits one run. A request for a different file
// while a run is in flight fails with *BusyError; a duplicate request for the
// same input joins the in-flight run. Runs are not cancelled when the caller
// goes away; only completion frees the slot.
package pipeline
