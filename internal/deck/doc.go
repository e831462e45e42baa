// Package deck turns a flashcard batch into a named export artifact. The
// JSON form is validated against an embedded schema before it leaves the
// process; an XLSX rendition is also available.
package deck
