package domain

import (
	"fmt"
	"strings"
)

// Language is one of the closed set of supported UI/content languages.
type Language string

const (
	German  Language = "de"
	English Language = "en"
	Dutch   Language = "nl"
)

// SourceLanguage is the language all static strings and API content are authored in.
const SourceLanguage = German

// Languages lists the supported set, source language first.
var Languages = []Language{German, English, Dutch}

func (l Language) String() string { return string(l) }

// IsSource reports whether l needs no translation.
func (l Language) IsSource() bool { return l == SourceLanguage }

func (l Language) Supported() bool {
	for _, s := range Languages {
		if l == s {
			return true
		}
	}
	return false
}

// ParseLanguage normalizes s and checks it against the supported set.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if !l.Supported() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return l, nil
}
