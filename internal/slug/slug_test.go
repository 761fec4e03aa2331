package slug

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "simple title",
			input:    "Hello World",
			maxLen:   MaxPostLen,
			expected: "hello-world",
		},
		{
			name:     "uppercase and punctuation",
			input:    "Go, Concurrency & You!",
			maxLen:   MaxPostLen,
			expected: "go-concurrency-you",
		},
		{
			name:     "whitespace runs collapse",
			input:    "  spaced \t out \n title  ",
			maxLen:   MaxPostLen,
			expected: "spaced-out-title",
		},
		{
			name:     "existing hyphens collapse",
			input:    "already--hyphen---ated",
			maxLen:   MaxPostLen,
			expected: "already-hyphen-ated",
		},
		{
			name:     "leading and trailing junk trimmed",
			input:    "--- trimmed ---",
			maxLen:   MaxPostLen,
			expected: "trimmed",
		},
		{
			name:     "empty input",
			input:    "",
			maxLen:   MaxPostLen,
			expected: "",
		},
		{
			name:     "only invalid characters",
			input:    "!@#$%^&*()",
			maxLen:   MaxPostLen,
			expected: "",
		},
		{
			name:     "truncated at tag cap without trailing hyphen",
			input:    strings.Repeat("ab ", 40),
			maxLen:   MaxTagLen,
			expected: strings.TrimSuffix(strings.Repeat("ab-", 17), "-"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input, tt.maxLen)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalize_Properties(t *testing.T) {
	inputs := []string{
		"Hello World",
		"Ünïcödé Tîtle with Áccents",
		"a      b",
		strings.Repeat("very long title ", 20),
		"---",
		"MixedCASE 123 --- ok",
	}

	for _, in := range inputs {
		got := Normalize(in, MaxPostLen)
		assert.LessOrEqual(t, len(got), MaxPostLen)
		assert.NotContains(t, got, "--")
		assert.False(t, strings.HasPrefix(got, "-"), "no leading hyphen in %q", got)
		assert.False(t, strings.HasSuffix(got, "-"), "no trailing hyphen in %q", got)
		for _, r := range got {
			valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
			assert.True(t, valid, "unexpected rune %q in %q", r, got)
		}
	}
}

// fakeChecker treats taken as the set of occupied slugs.
type fakeChecker struct {
	taken  map[string]uint
	probes []string
}

func (f *fakeChecker) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	f.probes = append(f.probes, slug)
	id, ok := f.taken[slug]
	if !ok {
		return false, nil
	}
	if excludeID != 0 && id == excludeID {
		return false, nil
	}
	return true, nil
}

func TestUnique(t *testing.T) {
	ctx := context.Background()

	t.Run("no collision keeps base slug", func(t *testing.T) {
		c := &fakeChecker{taken: map[string]uint{}}
		got, err := Unique(ctx, c, "Hello World", MaxPostLen, 0)
		assert.NoError(t, err)
		assert.Equal(t, "hello-world", got)
	})

	t.Run("suffixes increment from one", func(t *testing.T) {
		c := &fakeChecker{taken: map[string]uint{
			"hello-world":   1,
			"hello-world-1": 2,
		}}
		got, err := Unique(ctx, c, "Hello World", MaxPostLen, 0)
		assert.NoError(t, err)
		assert.Equal(t, "hello-world-2", got)
		assert.Equal(t, []string{"hello-world", "hello-world-1", "hello-world-2"}, c.probes)
	})

	t.Run("record under update keeps its own slug", func(t *testing.T) {
		c := &fakeChecker{taken: map[string]uint{"hello-world": 7}}
		got, err := Unique(ctx, c, "Hello World", MaxPostLen, 7)
		assert.NoError(t, err)
		assert.Equal(t, "hello-world", got)
	})

	t.Run("sequence of colliding creations stays unique", func(t *testing.T) {
		c := &fakeChecker{taken: map[string]uint{}}
		seen := map[string]bool{}
		for i := 0; i < 5; i++ {
			got, err := Unique(ctx, c, "Hello World", MaxPostLen, 0)
			assert.NoError(t, err)
			assert.False(t, seen[got], "slug %q assigned twice", got)
			seen[got] = true
			c.taken[got] = uint(i + 1)
		}
		assert.True(t, seen["hello-world"])
		assert.True(t, seen["hello-world-1"])
		assert.True(t, seen["hello-world-4"])
	})
}
