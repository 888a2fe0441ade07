package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name     string
		category int
		exercise int
		want     string
	}{
		{"exact exercise", 0, 1, "Barbell Bench Press"},
		{"unknown exercise falls back to category", 0, 999, "Bench Press"},
		{"category without sub-table", 19, 3, "Plank"},
		{"unknown category", 99, 0, "Exercise 99"},
		{"negative exercise", 28, -1, "Squat"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Resolve(tc.category, tc.exercise))
		})
	}
}

func TestResolveIsTotal(t *testing.T) {
	for category := 0; category <= 300; category++ {
		for _, exercise := range []int{0, 1, 17, 81, 255, 65534} {
			require.NotEmpty(t, Resolve(category, exercise), "category %d exercise %d", category, exercise)
		}
	}
}

func TestEveryCategoryInRangeIsKnown(t *testing.T) {
	for category := 0; category <= MaxCategory; category++ {
		require.True(t, Known(category), "category %d", category)
		require.NotContains(t, CategoryName(category), "Exercise ")
	}
	require.False(t, Known(MaxCategory+1))
}

func TestSubTablesOnlyUseKnownCategories(t *testing.T) {
	for category := range exerciseNames {
		require.True(t, Known(category), "sub-table for unknown category %d", category)
	}
}
