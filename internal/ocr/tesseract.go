//go:build tesseract

package ocr

import (
	"bytes"
	"context"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"

	"github.com/timelocker/tracker/internal/model"
)

// Tesseract detects text locally with libtesseract.
type Tesseract struct {
	language string
}

// NewTesseract creates a Tesseract detector for the given language.
func NewTesseract(language string) (Detector, error) {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}, nil
}

// DetectText implements Detector. Lines and words are both reported, as
// Rekognition does.
func (t *Tesseract) DetectText(ctx context.Context, data []byte) ([]model.TextDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "ocr: tesseract")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: decode image")
	}
	size := img.Bounds().Size()

	client := gosseract.NewClient()
	defer client.Close() //nolint:errcheck

	if err := client.SetLanguage(t.language); err != nil {
		return nil, eris.Wrap(err, "ocr: tesseract language")
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, eris.Wrap(err, "ocr: tesseract image")
	}

	var out []model.TextDetection
	for _, level := range []struct {
		ril  gosseract.PageIteratorLevel
		kind string
	}{
		{gosseract.RIL_TEXTLINE, model.TextTypeLine},
		{gosseract.RIL_WORD, model.TextTypeWord},
	} {
		boxes, err := client.GetBoundingBoxes(level.ril)
		if err != nil {
			return nil, eris.Wrap(err, "ocr: tesseract bounding boxes")
		}
		for _, b := range boxes {
			text := strings.TrimSpace(b.Word)
			if text == "" {
				continue
			}
			out = append(out, model.TextDetection{
				DetectedText: text,
				Type:         level.kind,
				Confidence:   b.Confidence,
				Geometry:     model.Geometry{BoundingBox: normalize(b.Box, size)},
			})
		}
	}
	return out, nil
}

func normalize(r image.Rectangle, size image.Point) model.BoundingBox {
	w, h := float64(size.X), float64(size.Y)
	return model.BoundingBox{
		Left:   float64(r.Min.X) / w,
		Top:    float64(r.Min.Y) / h,
		Width:  float64(r.Dx()) / w,
		Height: float64(r.Dy()) / h,
	}
}
