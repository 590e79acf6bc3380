// Package ocr detects text in screenshots.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/timelocker/tracker/internal/config"
	"github.com/timelocker/tracker/internal/model"
)

// Detector finds lines and words of text in an encoded image. Boxes are
// normalized to the image size.
type Detector interface {
	DetectText(ctx context.Context, image []byte) ([]model.TextDetection, error)
}

// NewDetector creates a Detector based on config. rek is only used by the
// rekognition provider and may be nil otherwise.
func NewDetector(cfg config.OCRConfig, rek RekognitionAPI) (Detector, error) {
	switch cfg.Provider {
	case "rekognition", "":
		if rek == nil {
			return nil, eris.New("ocr: rekognition provider requires an AWS client")
		}
		return NewRekognition(rek), nil
	case "tesseract":
		return NewTesseract(cfg.Language)
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
