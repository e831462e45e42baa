// Package gemini provides an implementation of the generation.Generator interface
// that uses Google's Gemini API for generating flashcards from study material.
//
// This package is an infrastructure adapter connecting the flashcard pipeline
// to Google's external Gemini AI service:
//
//  1. Generator:
//     - Implements the generation.Generator interface
//     - Renders the shared prompt template and requests a JSON reply
//
//  2. Response Processing:
//     - Concatenates the text parts of the first candidate
//     - Feeds them through generation.ParseBatch so both providers yield
//     identical batches for identical replies
//
//  3. Error Handling:
//     - Maps transport failures onto the generation error taxonomy
//     - Treats an empty or safety-blocked candidate as a parse failure
//
// No retries are attempted; a failed request is reported to the caller.
package gemini
