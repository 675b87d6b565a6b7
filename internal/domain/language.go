package domain

import "strings"

// Language is a full locale identifier such as "hi-IN".
type Language string

const (
	// DefaultLanguage needs no translation.
	DefaultLanguage Language = "en-US"
	// SourceLanguage is the language the producer publishes in.
	SourceLanguage = "en"
)

// TranslationCode returns the leading subtag, which is what the translation
// service expects ("hi-IN" -> "hi"). The speech service takes the full locale.
func (l Language) TranslationCode() string {
	code, _, _ := strings.Cut(string(l), "-")
	return code
}

func (l Language) IsDefault() bool {
	return l == "" || l == DefaultLanguage
}

type LanguageOption struct {
	Code Language `json:"code"`
	Name string   `json:"name"`
}

var SupportedLanguages = []LanguageOption{
	{Code: "en-US", Name: "English"},
	{Code: "hi-IN", Name: "Hindi"},
	{Code: "ta-IN", Name: "Tamil"},
	{Code: "ml-IN", Name: "Malayalam"},
	{Code: "te-IN", Name: "Telugu"},
	{Code: "kn-IN", Name: "Kannada"},
}

// LookupLanguage reports whether code is one of SupportedLanguages.
func LookupLanguage(code string) (LanguageOption, bool) {
	for _, opt := range SupportedLanguages {
		if strings.EqualFold(string(opt.Code), code) {
			return opt, true
		}
	}
	return LanguageOption{}, false
}
