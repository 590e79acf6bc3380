//go:build !tesseract

package ocr

import "github.com/rotisserie/eris"

// NewTesseract reports that local OCR was not compiled in. Build with
// -tags tesseract (requires libtesseract) to enable it.
func NewTesseract(string) (Detector, error) {
	return nil, eris.New("ocr: tesseract provider requires a build with -tags tesseract")
}
