package model

// PixelBox is an icon bounding box in screenshot pixels. The key casing
// matches what the armament detector function emits.
type PixelBox struct {
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ArmamentBounding is one armament icon found on the screenshot.
type ArmamentBounding struct {
	Name        string   `json:"name"`
	BoundingBox PixelBox `json:"boundingBox"`
}

// BoundingBox is a text box in coordinates normalized to 0..1 of the image.
type BoundingBox struct {
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
}

// Geometry wraps a BoundingBox, mirroring the OCR service response layout.
type Geometry struct {
	BoundingBox BoundingBox `json:"BoundingBox"`
}

// Text detection types.
const (
	TextTypeLine = "LINE"
	TextTypeWord = "WORD"
)

// TextDetection is a single OCR output.
type TextDetection struct {
	DetectedText string   `json:"DetectedText"`
	Type         string   `json:"Type"`
	Confidence   float64  `json:"Confidence"`
	Geometry     Geometry `json:"Geometry"`
}

// Box returns the detection's bounding box.
func (t TextDetection) Box() BoundingBox {
	return t.Geometry.BoundingBox
}

// LevelsMeta keeps both the raw and the deduplicated level detections.
type LevelsMeta struct {
	PlainResult     []TextDetection `json:"plainResult"`
	ProcessedResult []TextDetection `json:"processedResult"`
}
