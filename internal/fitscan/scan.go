// Package fitscan recovers strength sets from device activity files.
//
// Scan does not parse the container's definition and data message framing. It slides a
// fixed-layout window over every offset past the file header and keeps the windows whose
// fields fall inside plausibility bounds:
//
//	offset+0  exercise category (uint8, 0..32)
//	offset+1  repetitions       (uint8, 1..100)
//	offset+2  weight            (uint16 little endian, tenths of a kg, 0..5000)
//
// Overlapping candidates are all considered, trading false positives for recall.
package fitscan

import (
	"encoding/binary"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/taxonomy"
)

// Plausibility bounds for a candidate window.
const (
	MinReps         = 1
	MaxReps         = 100
	MaxWeightTenths = 5000
	MaxCategory     = taxonomy.MaxCategory

	windowSize = 4
)

// Scanner implements domain.ActivityDecoder.
type Scanner struct{}

// Extract runs Scan.
func (Scanner) Extract(buf []byte) domain.Extraction {
	return Scan(buf)
}

// Inspect runs Inspect.
func (Scanner) Inspect(buf []byte) domain.FileSummary {
	return Inspect(buf)
}

// Scan extracts plausible strength sets from buf. The first byte is the header length and
// scanning starts right after the header. Malformed or short input yields an empty result.
func Scan(buf []byte) domain.Extraction {
	var out domain.Extraction
	if len(buf) == 0 {
		return out
	}
	start := int(buf[0])
	if start >= len(buf) {
		return out
	}

	index := make(map[string]int)
	for i := start; i+windowSize <= len(buf); i++ {
		set, ok := candidate(buf[i:i+windowSize], i)
		if !ok {
			continue
		}
		out.Sets = append(out.Sets, set)

		name := exerciseName(set)
		pos, seen := index[name]
		if !seen {
			pos = len(out.Exercises)
			index[name] = pos
			out.Exercises = append(out.Exercises, domain.ExerciseSets{Name: name})
		}
		out.Exercises[pos].Reps = append(out.Exercises[pos].Reps, set.Reps)
		out.Exercises[pos].Weights = append(out.Exercises[pos].Weights, set.WeightKg)
	}
	return out
}

func candidate(window []byte, offset int) (domain.ExtractedSet, bool) {
	category := int(window[0])
	reps := int(window[1])
	weight := int(binary.LittleEndian.Uint16(window[2:4]))
	if !plausible(category, reps, weight) {
		return domain.ExtractedSet{}, false
	}
	return domain.ExtractedSet{
		Category: category,
		Reps:     reps,
		WeightKg: float64(weight) / 10,
		Offset:   offset,
	}, true
}

func plausible(category, reps, weightTenths int) bool {
	return reps >= MinReps && reps <= MaxReps &&
		weightTenths >= 0 && weightTenths <= MaxWeightTenths &&
		category >= 0 && category <= MaxCategory
}

// noExerciseCode: a window carries only the category, so names fall back to the category name.
const noExerciseCode = -1

func exerciseName(set domain.ExtractedSet) string {
	return taxonomy.Resolve(set.Category, noExerciseCode)
}
