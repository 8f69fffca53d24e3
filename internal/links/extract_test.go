package links

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	assert.Equal(t, "plain text", StripTags("plain text"))
	assert.Equal(t, "Hello World", StripTags("<p>Hello <strong>World</strong></p>"))
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "strips markup and punctuation",
			text: "<h2>Kommunen vedtar nye regler!</h2>",
			want: []string{"kommunen", "vedtar", "nye", "regler"},
		},
		{
			name: "drops stopwords and short tokens",
			text: "det er en stor dag for byen og alle som bor der",
			want: []string{"stor", "dag", "byen", "bor", "der"},
		},
		{
			name: "dedupes preserving first-seen order",
			text: "fotball kamp fotball seier kamp",
			want: []string{"fotball", "kamp", "seier"},
		},
		{
			name: "short tokens measured in runes",
			text: "ål går, æra kom",
			want: []string{"går", "æra", "kom"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractKeywords(tc.text))
		})
	}
}

func TestExtractKeywordsIdempotent(t *testing.T) {
	texts := []string{
		"Kommunen åpner nytt svømmeanlegg i sentrum",
		"<h2>Fotballkamp!</h2> Kampen spilles på stadion, og kampen blir tett.",
	}

	// Extracting from the joined keyword set must reproduce it exactly.
	for _, text := range texts {
		first := ExtractKeywords(text)
		assert.Equal(t, first, ExtractKeywords(strings.Join(first, " ")))
	}
}
