// Package taxonomy maps the vendor's numeric exercise codes to display names.
//
// The tables track the vendor's published exercise profile. Growing them is a
// data-only change: add rows to categoryNames or to a category's sub-table.
package taxonomy

import (
	"fmt"
	"strings"
)

// TableVersion identifies the vendor profile revision the tables were last synced against.
const TableVersion = "fit-profile-21.94"

// MaxCategory is the highest category code the vendor currently defines.
const MaxCategory = 32

// Resolve returns the display name for an exercise. Unknown exercise codes fall back to the
// category name; unknown categories produce "Exercise {category}". Resolve never returns "".
func Resolve(category, exercise int) string {
	if names, ok := exerciseNames[category]; ok && exercise >= 0 {
		if name, ok := names[exercise]; ok {
			return displayName(name)
		}
	}
	return CategoryName(category)
}

// CategoryName returns the generic name of a category, or a synthesized label when the code
// is unknown.
func CategoryName(category int) string {
	if name, ok := categoryNames[category]; ok {
		return displayName(name)
	}
	return fmt.Sprintf("Exercise %d", category)
}

// Known reports whether the category code has a table entry.
func Known(category int) bool {
	_, ok := categoryNames[category]
	return ok
}

func displayName(raw string) string {
	words := strings.Split(raw, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
