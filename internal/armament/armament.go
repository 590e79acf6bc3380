// Package armament calls the icon detector function that finds armament
// icons on a screenshot and crops the level digits for OCR.
package armament

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rotisserie/eris"

	"github.com/timelocker/tracker/internal/model"
)

// Extractor finds armament icons on a screenshot.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (*Result, error)
}

// Result is the detector output. LevelImage is an encoded image of the
// armament panel with icons masked out, ready for text detection.
type Result struct {
	Armaments  []model.ArmamentBounding
	LevelImage []byte
	Width      int
	Height     int
}

// LambdaAPI is the subset of the Lambda client used to invoke the detector.
type LambdaAPI interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// FunctionError is returned when the detector function itself fails.
type FunctionError struct {
	Function string
	Kind     string
	Payload  string
}

func (e *FunctionError) Error() string {
	return "armament: function " + e.Function + " failed (" + e.Kind + "): " + e.Payload
}

// Lambda invokes the detector as a synchronous Lambda function.
type Lambda struct {
	api      LambdaAPI
	function string
}

// NewLambda creates a Lambda extractor for the named function.
func NewLambda(api LambdaAPI, function string) *Lambda {
	return &Lambda{api: api, function: function}
}

type request struct {
	DataInBase64 string `json:"dataInBase64"`
}

type envelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type responseBody struct {
	Armaments map[string]struct {
		BoundingBox model.PixelBox `json:"boundingBox"`
	} `json:"armaments"`
	ImageForLevelRekognition struct {
		DataInBase64 string `json:"dataInBase64"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
	} `json:"imageForLevelRekognition"`
}

// Extract implements Extractor.
func (l *Lambda) Extract(ctx context.Context, image []byte) (*Result, error) {
	payload, err := json.Marshal(request{DataInBase64: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return nil, eris.Wrap(err, "armament: encode request")
	}

	out, err := l.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(l.function),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "armament: invoke %s", l.function)
	}
	if out.FunctionError != nil {
		return nil, &FunctionError{Function: l.function, Kind: aws.ToString(out.FunctionError), Payload: string(out.Payload)}
	}

	return decode(out.Payload)
}

func decode(payload []byte) (*Result, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, eris.Wrap(err, "armament: decode payload")
	}
	var body responseBody
	if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
		return nil, eris.Wrap(err, "armament: decode body")
	}

	img, err := base64.StdEncoding.DecodeString(body.ImageForLevelRekognition.DataInBase64)
	if err != nil {
		return nil, eris.Wrap(err, "armament: decode level image")
	}

	// Map order is random; sort by name so equal positions stay deterministic.
	names := make([]string, 0, len(body.Armaments))
	for name := range body.Armaments {
		names = append(names, name)
	}
	slices.Sort(names)

	res := &Result{
		Armaments:  make([]model.ArmamentBounding, 0, len(names)),
		LevelImage: img,
		Width:      body.ImageForLevelRekognition.Width,
		Height:     body.ImageForLevelRekognition.Height,
	}
	for _, name := range names {
		res.Armaments = append(res.Armaments, model.ArmamentBounding{
			Name:        name,
			BoundingBox: body.Armaments[name].BoundingBox,
		})
	}
	return res, nil
}
