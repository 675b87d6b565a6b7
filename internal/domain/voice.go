package domain

import "strings"

// Gender selects the synthesized voice.
type Gender string

const (
	GenderNeutral Gender = "NEUTRAL"
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
)

// NormalizeGender maps anything that is not MALE or FEMALE to NEUTRAL.
func NormalizeGender(s string) Gender {
	switch g := Gender(strings.ToUpper(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale:
		return g
	default:
		return GenderNeutral
	}
}
