package frequency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolabel/internal/domain"
)

func TestGenerate(t *testing.T) {
	g := NewGenerator()
	cases := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"most frequent first", []string{"dog", "cat", "cat", "dog", "cat"}, "Cat Dog"},
		{"at most three words", []string{"a red car", "red bus", "blue car", "red tram", "bike"}, "Red Car Bus"},
		{"stopwords dropped", []string{"the", "of", "Harbor"}, "Harbor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := g.Generate(context.Background(), domain.GenerateRequest{Tokens: tc.tokens})
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.Text)
		})
	}
}

func TestGenerateWithoutRegularWords(t *testing.T) {
	g := NewGenerator()
	cases := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"numeric codes", []string{"42", "7", "42", "7", "42"}, "42 7"},
		{"numbers survive stopwords", []string{"the", "and", "42"}, "42"},
		{"only stopwords", []string{"the", "a", "the", "of", "to"}, "The A Of"},
		{"punctuation only", []string{"--", "??", "--"}, "-- ??"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := g.Generate(context.Background(), domain.GenerateRequest{Tokens: tc.tokens})
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.Text)
		})
	}
}

func TestGenerateNothingUsable(t *testing.T) {
	_, err := NewGenerator().Generate(context.Background(), domain.GenerateRequest{Tokens: []string{" ", ""}})
	assert.Error(t, err)
}
