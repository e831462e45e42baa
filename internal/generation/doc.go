// Package generation defines the boundary between the flashcard pipeline and
// external LLM services. It owns the Generator interface, the prompt
// template, the failure taxonomy every provider maps its errors onto, and
// the parser that turns a free-form model reply into a batch of exactly
// domain.BatchSize flashcards. Provider clients live under
// internal/platform (ollama, gemini).
package generation
