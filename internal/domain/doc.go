// Package domain contains the core entities of the flashcard pipeline: file
// records and their volatile content, flashcards and the fixed-size batches
// produced by generation, and exported decks. It is independent of any
// storage, transport or extraction mechanism.
package domain
