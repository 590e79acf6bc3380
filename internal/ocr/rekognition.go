package ocr

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rotisserie/eris"

	"github.com/timelocker/tracker/internal/model"
)

// RekognitionAPI is the subset of the Rekognition client used for OCR.
type RekognitionAPI interface {
	DetectText(ctx context.Context, in *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// Rekognition detects text with AWS Rekognition DetectText.
type Rekognition struct {
	api RekognitionAPI
}

// NewRekognition creates a Rekognition detector.
func NewRekognition(api RekognitionAPI) *Rekognition {
	return &Rekognition{api: api}
}

// DetectText implements Detector.
func (r *Rekognition) DetectText(ctx context.Context, image []byte) ([]model.TextDetection, error) {
	out, err := r.api.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return nil, eris.Wrap(err, "ocr: rekognition detect text")
	}

	dets := make([]model.TextDetection, 0, len(out.TextDetections))
	for _, td := range out.TextDetections {
		dets = append(dets, fromRekognition(td))
	}
	return dets, nil
}

func fromRekognition(td types.TextDetection) model.TextDetection {
	d := model.TextDetection{
		DetectedText: aws.ToString(td.DetectedText),
		Type:         string(td.Type),
		Confidence:   float64(aws.ToFloat32(td.Confidence)),
	}
	if td.Geometry != nil && td.Geometry.BoundingBox != nil {
		bb := td.Geometry.BoundingBox
		d.Geometry.BoundingBox = model.BoundingBox{
			Left:   float64(aws.ToFloat32(bb.Left)),
			Top:    float64(aws.ToFloat32(bb.Top)),
			Width:  float64(aws.ToFloat32(bb.Width)),
			Height: float64(aws.ToFloat32(bb.Height)),
		}
	}
	return d
}
