// Package api exposes the flashcard pipeline over HTTP: uploads and file
// management, previews, generation, study navigation, deck export and a
// server-sent event stream. Handlers translate HTTP concerns to calls on the
// ingest, pipeline, study and deck packages.
package api
