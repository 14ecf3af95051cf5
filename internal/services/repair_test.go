package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-buddy/internal/models"
)

const sampleOutline = `{"subject":"Data Structures","units":[{"unit_name":"Linear","very_important":["Arrays","Linked Lists","Stacks"],"important":["Queues","Deques","Circular Buffers"],"optional":[]}]}`

func TestRepairOutlineFencedMatchesUnfenced(t *testing.T) {
	plain, err := RepairOutline(sampleOutline)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"json fence":       "```json\n" + sampleOutline + "\n```",
		"bare fence":       "```\n" + sampleOutline + "\n```",
		"upper-case fence": "```JSON\n" + sampleOutline + "\n```",
		"fence mid-text":   "Here you go:\n```json\n" + sampleOutline + "\n```\nGood luck!",
	} {
		t.Run(name, func(t *testing.T) {
			fenced, err := RepairOutline(raw)
			require.NoError(t, err)
			assert.Equal(t, plain, fenced)
		})
	}
}

func TestRepairOutlineSurroundingProse(t *testing.T) {
	outline, err := RepairOutline("Sure! Here is the outline:\n" + sampleOutline + "\nLet me know if you need more.")
	require.NoError(t, err)
	assert.Equal(t, "Data Structures", outline.Subject)
	require.Len(t, outline.Units, 1)
	assert.Equal(t, []string{"Arrays", "Linked Lists", "Stacks"}, models.TopicNames(outline.Units[0].VeryImportant))
}

func TestRepairOutlineSimpleFence(t *testing.T) {
	outline, err := RepairOutline("```json\n{\"subject\":\"X\",\"units\":[]}\n```")
	require.NoError(t, err)
	assert.Equal(t, &models.SyllabusOutline{Subject: "X", Units: []models.Unit{}}, outline)
}

func TestRepairOutlineIgnoresStrayBraces(t *testing.T) {
	raw := "Using {placeholder} notation:\n" + sampleOutline + "\nAlso see {\"note\": true}."
	outline, err := RepairOutline(raw)
	require.NoError(t, err)
	assert.Equal(t, "Data Structures", outline.Subject)
}

func TestRepairOutlineBracesInsideStrings(t *testing.T) {
	raw := `prefix {"subject":"Sets {and} maps \" }","units":[]} suffix`
	outline, err := RepairOutline(raw)
	require.NoError(t, err)
	assert.Equal(t, `Sets {and} maps " }`, outline.Subject)
}

func TestRepairOutlineErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmptyOutput},
		{"whitespace", "  \n\t ", ErrEmptyOutput},
		{"no braces", "I could not build an outline for that.", ErrNoJSONFound},
		{"only fences", "```json\n```", ErrNoJSONFound},
		{"reversed braces", "} nothing here {", ErrNoJSONFound},
		{"unclosed", `{"subject": "X", "units": [`, ErrNoJSONFound},
		{"malformed", `{"subject": "X", "units": [}`, ErrMalformedJSON},
		{"trailing comma", `{"subject": "X", "units": [],}`, ErrMalformedJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outline, err := RepairOutline(tt.raw)
			assert.Nil(t, outline)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRepairOutlineSkipsNestedUnitWhenOuterIsBroken(t *testing.T) {
	raw := `{"subject": "X", "units": [{"unit_name": "A", "very_important": ["a"]}],}`
	_, err := RepairOutline(raw)
	assert.ErrorIs(t, err, ErrMalformedJSON)
}

func TestRepairOutlineManyUnmatchedBraces(t *testing.T) {
	_, err := RepairOutline(strings.Repeat("{", 200_000) + "}")
	assert.ErrorIs(t, err, ErrMalformedJSON)

	_, err = RepairOutline(strings.Repeat(`{"a":`, 100_000))
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestRepairOutlineAfterStrayBraces(t *testing.T) {
	raw := "Sets look like {a, b} and maps like {k: v}.\n" + sampleOutline + "\nHope {this} helps."
	outline, err := RepairOutline(raw)
	require.NoError(t, err)
	assert.Equal(t, "Data Structures", outline.Subject)
}

func TestValidateOutline(t *testing.T) {
	outline := &models.SyllabusOutline{
		Subject: "Algorithms",
		Units: []models.Unit{
			{
				Name:          "Sorting",
				VeryImportant: models.NewTopics("Quicksort", "Mergesort", "Heapsort"),
				Important:     models.NewTopics("Counting sort", "Radix sort", "Stability"),
			},
			{
				Name:          "",
				VeryImportant: models.NewTopics("BFS"),
			},
		},
	}

	warnings := ValidateOutline(outline, MinTopicsPerCategory)
	assert.Equal(t, []string{
		"unit 2: unit_name is empty",
		"unit 2: very_important has 1 topics, want at least 3",
		"unit 2: important has 0 topics, want at least 3",
	}, warnings)

	for _, unit := range outline.Units {
		assert.NotNil(t, unit.VeryImportant)
		assert.NotNil(t, unit.Important)
		assert.NotNil(t, unit.Optional)
	}
}

func TestValidateOutlineEmpty(t *testing.T) {
	assert.Equal(t, []string{"outline is empty"}, ValidateOutline(nil, 3))

	outline := &models.SyllabusOutline{}
	assert.Equal(t, []string{"subject is empty", "outline has no units"}, ValidateOutline(outline, 3))
	assert.NotNil(t, outline.Units)
}
