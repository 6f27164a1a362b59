package realm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *Resolver {
	return NewResolver([]Entry{
		{Name: "Stormrage", Slug: "stormrage"},
		{Name: "Area 52", Slug: "area-52"},
		{Name: "Mal'Ganis", Slug: "malganis"},
		{Name: "Sisters of Elune", Slug: "sisters-of-elune"},
		{Name: "Tichondrius", Slug: "tichondrius"},
		{Name: "Emerald Dream", Slug: "emerald-dream"},
		{Name: "Wyrmrest Accord", Slug: "wyrmrest-accord"},
		{Name: "Moon Guard", Slug: "moon-guard"},
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"stormrage", "Stormrage"},
		{"STORMRAGE", "Stormrage"},
		{"  area   52 ", "Area 52"},
		{"mal'ganis", "Mal'ganis"},
		{"sisters of elune", "Sisters Of Elune"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestResolve_Exact(t *testing.T) {
	r := testResolver()

	result := r.Resolve("stormrage")

	assert.Equal(t, Exact, result.Outcome)
	assert.Equal(t, "stormrage", result.Slug)
	assert.Equal(t, "Stormrage", result.Name)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Found())
}

func TestResolve_ExactForEveryNormalizedEntry(t *testing.T) {
	r, err := DefaultResolver()
	require.NoError(t, err)

	entries, err := LoadEntries(realmsYAML)
	require.NoError(t, err)

	for _, e := range entries {
		if Normalize(e.Name) != e.Name {
			continue
		}
		result := r.Resolve(e.Name)
		assert.Equal(t, Exact, result.Outcome, e.Name)
		assert.Equal(t, e.Slug, result.Slug, e.Name)
		assert.Equal(t, 100, result.Score, e.Name)
	}
}

func TestResolve_FuzzyAboveThreshold(t *testing.T) {
	r := testResolver()

	tests := []struct {
		input         string
		expectedSlug  string
		expectedName  string
		expectedScore int
	}{
		{"stormrge", "stormrage", "Stormrage", 94},
		{"tichondrious", "tichondrius", "Tichondrius", 96},
		{"area52", "area-52", "Area 52", 92},
		{"area 51", "area-52", "Area 52", 86},
		{"mal'ganis", "malganis", "Mal'Ganis", 100},
		{"sisters of elune", "sisters-of-elune", "Sisters of Elune", 100},
		// partial: the input is a piece of a longer name
		{"emerald", "emerald-dream", "Emerald Dream", 90},
		{"wyrmrest", "wyrmrest-accord", "Wyrmrest Accord", 90},
		{"storm", "stormrage", "Stormrage", 90},
		{"guard", "moon-guard", "Moon Guard", 90},
		// token set: extra or reordered words
		{"moon guard us", "moon-guard", "Moon Guard", 95},
		{"accord wyrmrest", "wyrmrest-accord", "Wyrmrest Accord", 95},
		{"elune sisters", "sisters-of-elune", "Sisters of Elune", 95},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := r.Resolve(tt.input)
			assert.Equal(t, Fuzzy, result.Outcome)
			assert.Equal(t, tt.expectedSlug, result.Slug)
			assert.Equal(t, tt.expectedName, result.Name)
			assert.Equal(t, tt.expectedScore, result.Score)
			assert.Greater(t, result.Score, MinScore)
		})
	}
}

func TestResolve_BelowThreshold(t *testing.T) {
	r := testResolver()

	for _, input := range []string{"xyzzyqq", "ragnaros", "emerold", "stromgarde"} {
		t.Run(input, func(t *testing.T) {
			result := r.Resolve(input)
			assert.Equal(t, NotFound, result.Outcome)
			assert.False(t, result.Found())
			assert.Empty(t, result.Slug)
			assert.Empty(t, result.Name)
			assert.LessOrEqual(t, result.Score, MinScore)
		})
	}
}

func TestResolve_MalformedInput(t *testing.T) {
	r := testResolver()

	for _, input := range []string{"", "   ", "\t\n", "'''", "☃"} {
		result := r.Resolve(input)
		assert.Equal(t, NotFound, result.Outcome, "%q", input)
		assert.Empty(t, result.Slug)
	}
}

func TestResolve_EmptyResolver(t *testing.T) {
	r := NewResolver(nil)

	result := r.Resolve("stormrage")
	assert.Equal(t, NotFound, result.Outcome)
	assert.Equal(t, 0, result.Score)
}

func TestScore(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"Stormrage", "stormrage", 100},
		{"Stormrge", "Stormrage", 94},
		{"Mal'ganis", "Mal'Ganis", 100},
		{"Area52", "Area 52", 92},
		{"Emerald", "Emerald Dream", 90},
		{"Wyrmrest", "Wyrmrest Accord", 90},
		{"Moon Guard Us", "Moon Guard", 95},
		{"Elune Sisters Of", "Sisters of Elune", 95},
		{"", "", 0},
		{"--", "Stormrage", 0},
		{"abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.a, tt.b))
			assert.Equal(t, tt.expected, Score(tt.b, tt.a))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "mal ganis", fold("Mal'Ganis"))
	assert.Equal(t, "area 52", fold("  Area 52 "))
	assert.Equal(t, "azjol nerub", fold("Azjol-Nerub☃"))
	assert.Equal(t, "", fold("☃"))
}

func TestDefaultResolver(t *testing.T) {
	r, err := DefaultResolver()
	require.NoError(t, err)
	assert.Greater(t, r.Len(), 200)

	result := r.Resolve("stormrage")
	assert.Equal(t, "stormrage", result.Slug)
	assert.Equal(t, "Stormrage", result.Name)

	result = r.Resolve("kel'thuzad")
	require.True(t, result.Found())
	assert.Equal(t, "kelthuzad", result.Slug)
	assert.Equal(t, "Kel'Thuzad", result.Name)

	tests := map[string]string{
		"emerald":       "emerald-dream",
		"wyrmrest":      "wyrmrest-accord",
		"moon guard us": "moon-guard",
		"area52":        "area-52",
	}
	for input, slug := range tests {
		result := r.Resolve(input)
		assert.Equal(t, Fuzzy, result.Outcome, input)
		assert.Equal(t, slug, result.Slug, input)
	}
}

func TestLoadEntries_Invalid(t *testing.T) {
	_, err := LoadEntries([]byte("realms:\n  - name: Stormrage\n"))
	assert.Error(t, err)

	_, err = LoadEntries([]byte("realms: [\n"))
	assert.Error(t, err)
}
