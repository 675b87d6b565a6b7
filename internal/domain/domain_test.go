package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguage_TranslationCode(t *testing.T) {
	assert.Equal(t, "hi", Language("hi-IN").TranslationCode())
	assert.Equal(t, "en", DefaultLanguage.TranslationCode())
	assert.Equal(t, "fr", Language("fr").TranslationCode())
}

func TestLanguage_IsDefault(t *testing.T) {
	assert.True(t, DefaultLanguage.IsDefault())
	assert.True(t, Language("").IsDefault())
	assert.False(t, Language("ta-IN").IsDefault())
}

func TestLookupLanguage(t *testing.T) {
	opt, ok := LookupLanguage("ml-in")
	assert.True(t, ok)
	assert.Equal(t, "Malayalam", opt.Name)

	_, ok = LookupLanguage("xx-YY")
	assert.False(t, ok)
}

func TestNormalizeGender(t *testing.T) {
	tests := map[string]Gender{
		"MALE":    GenderMale,
		"female":  GenderFemale,
		" Male ":  GenderMale,
		"":        GenderNeutral,
		"robot":   GenderNeutral,
		"NEUTRAL": GenderNeutral,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeGender(in), "input %q", in)
	}
}
