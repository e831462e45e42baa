// Package ocr provides optical character recognition for uploaded files.
// A Factory hands out Engines that are scoped to a single extraction: each
// engine owns a private scratch workspace that is removed on Release.
//
// The bundled implementation shells out to tesseract, rasterizing PDF pages
// with pdftoppm and normalizing images with disintegration/imaging first.
package ocr
