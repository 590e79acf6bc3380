// Package detect orders detector output into reading order and collapses
// duplicate OCR hits.
package detect

import (
	"cmp"
	"math"
	"slices"

	"github.com/timelocker/tracker/internal/model"
)

const (
	// IconRowTolerance is the vertical jitter, in pixels, under which two
	// icon boxes are treated as the same row.
	IconRowTolerance = 3.0
	// TextRowTolerance is the same for normalized text boxes.
	TextRowTolerance = 0.01
	// DedupeTolerance bounds the top/left offset of detections of one region.
	DedupeTolerance = 0.01
)

func readingOrder(topA, leftA, topB, leftB, tolerance float64) int {
	if math.Abs(topA-topB) > tolerance {
		return cmp.Compare(topA, topB)
	}
	return cmp.Compare(leftA, leftB)
}

// CompareArmaments orders icon boxes top to bottom, then left to right
// within a row.
func CompareArmaments(a, b model.ArmamentBounding) int {
	return readingOrder(a.BoundingBox.Top, a.BoundingBox.Left, b.BoundingBox.Top, b.BoundingBox.Left, IconRowTolerance)
}

// CompareTexts orders text detections top to bottom, then left to right
// within a row.
func CompareTexts(a, b model.TextDetection) int {
	ba, bb := a.Box(), b.Box()
	return readingOrder(ba.Top, ba.Left, bb.Top, bb.Left, TextRowTolerance)
}

// SortArmaments sorts icons into reading order in place.
func SortArmaments(arms []model.ArmamentBounding) {
	slices.SortStableFunc(arms, CompareArmaments)
}

// SortTexts sorts text detections into reading order in place.
func SortTexts(texts []model.TextDetection) {
	slices.SortStableFunc(texts, CompareTexts)
}

// isNoise reports glyphs produced by the copyright overlay on screenshots.
func isNoise(t model.TextDetection) bool {
	return t.DetectedText == "C" || t.DetectedText == "c"
}

// Dedupe drops noise glyphs, groups detections whose top and left are within
// DedupeTolerance of a group's first member, and keeps the most confident
// detection of each group. Output follows group creation order.
func Dedupe(texts []model.TextDetection) []model.TextDetection {
	type group struct {
		first model.BoundingBox
		best  model.TextDetection
	}
	var groups []group

	for _, t := range texts {
		if isNoise(t) {
			continue
		}
		box := t.Box()
		idx := slices.IndexFunc(groups, func(g group) bool {
			return math.Abs(g.first.Top-box.Top) < DedupeTolerance &&
				math.Abs(g.first.Left-box.Left) < DedupeTolerance
		})
		if idx < 0 {
			groups = append(groups, group{first: box, best: t})
			continue
		}
		if t.Confidence > groups[idx].best.Confidence {
			groups[idx].best = t
		}
	}

	out := make([]model.TextDetection, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.best)
	}
	return out
}
