// Package extract turns uploaded files into plain text.
//
// The strategy is chosen per file, first match wins:
//
//  1. PDF documents are read from their text layer. A non-empty result is
//     returned as is; an unreadable document falls through to step 3.
//  2. Recognized plain-text kinds are decoded (UTF-8, or UTF-16 with a byte
//     order mark) and returned without any fallback.
//  3. Everything else, including PDFs without a readable text layer, goes through
//     optical recognition. The recognition engine is acquired for this call
//     only and released on every exit path.
package extract
