// Package locale defines the closed set of display languages the site supports.
package locale

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

// Locale is one of the three supported display languages.
type Locale string

const (
	ID Locale = "id"
	EN Locale = "en"
	JA Locale = "ja"
)

// Default is the locale every new view starts in.
const Default = ID

// ErrUnsupported is returned by Parse for anything outside the closed set.
var ErrUnsupported = errors.New("unsupported locale")

// Language describes a locale as the selector shows it.
type Language struct {
	Code  Locale
	Label string
	Flag  string
}

var languages = []Language{
	{Code: ID, Label: "Indonesia", Flag: "🇮🇩"},
	{Code: EN, Label: "English", Flag: "🇬🇧"},
	{Code: JA, Label: "日本語", Flag: "🇯🇵"},
}

// All returns the supported locales in selector order.
func All() []Locale {
	out := make([]Locale, len(languages))
	for i, l := range languages {
		out[i] = l.Code
	}
	return out
}

// Languages returns selector metadata in selector order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Parse validates s against the supported set. Matching is case-insensitive.
func Parse(s string) (Locale, error) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	if l.Valid() {
		return l, nil
	}
	return "", errors.Wrapf(ErrUnsupported, "%q", s)
}

// Valid reports whether l is one of the supported locales.
func (l Locale) Valid() bool {
	for _, lang := range languages {
		if lang.Code == l {
			return true
		}
	}
	return false
}

// Info returns the selector metadata for l, falling back to the default locale.
func (l Locale) Info() Language {
	for _, lang := range languages {
		if lang.Code == l {
			return lang
		}
	}
	return languages[0]
}

// Upper is the short uppercase code shown on the selector button.
func (l Locale) Upper() string {
	return strings.ToUpper(string(l))
}

func (l Locale) String() string { return string(l) }

var matcher = language.NewMatcher([]language.Tag{
	language.Indonesian,
	language.English,
	language.Japanese,
})

// Negotiate picks the best supported locale for an Accept-Language header value.
// Unparseable or empty headers yield fallback.
func Negotiate(acceptLanguage string, fallback Locale) Locale {
	if strings.TrimSpace(acceptLanguage) == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return languages[idx].Code
}
