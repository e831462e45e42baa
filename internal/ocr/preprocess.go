package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// minRecognitionWidth is the width narrower images are upscaled to.
const minRecognitionWidth = 1200

// normalizeImage decodes data and returns a grayscale image at least
// minRecognitionWidth pixels wide, honoring EXIF orientation.
func normalizeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	gray := imaging.Grayscale(img)
	if w := gray.Bounds().Dx(); w > 0 && w < minRecognitionWidth {
		return imaging.Resize(gray, minRecognitionWidth, 0, imaging.Lanczos), nil
	}
	return gray, nil
}
