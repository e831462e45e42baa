// Package ollama implements generation.Generator against a local Ollama
// server's /api/generate endpoint.
package ollama
