package dataportal

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"

	"sightseeing_ms/internal/domain"
)

func mapTouristInformation(d *poiData, lang domain.Language) (domain.TouristInformation, error) {
	name := strings.TrimSpace(localized(d.Name, d.Translations, lang, func(tr rawTranslation) text { return tr.Name }))
	if name == "" {
		return domain.TouristInformation{}, fmt.Errorf("%w: missing name", domain.ErrInvalidResponse)
	}

	info := domain.TouristInformation{
		Name:        name,
		Description: StripHTML(localized(d.DescriptionText, d.Translations, lang, func(tr rawTranslation) text { return tr.DescriptionText })),
		Language:    lang.String(),
	}

	if a := d.Address; a != nil {
		info.Address = domain.SightAddress{
			Street:      strings.TrimSpace(string(a.Street)),
			HouseNumber: strings.TrimSpace(string(a.HouseNumber)),
			PostalCode:  strings.TrimSpace(string(a.PostalCode)),
		}
	}

	if cd := d.ContactDetails; cd != nil {
		info.ContactDetails = domain.SightContactDetails{
			Phone:   strings.TrimSpace(string(cd.Phone)),
			Email:   validEmail(name, string(cd.Email)),
			Website: strings.TrimSpace(string(cd.Website)),
		}
	}

	if d.Texts != nil {
		info.AdditionalInformation = make([]domain.SightText, 0, len(d.Texts))
		for _, t := range d.Texts {
			info.AdditionalInformation = append(info.AdditionalInformation, domain.SightText{
				Headline: localized(t.Headline, t.Translations, lang, func(tr rawTranslation) text { return tr.Headline }),
				Text:     SanitizeText(localized(t.Text, t.Translations, lang, func(tr rawTranslation) text { return tr.Text })),
			})
		}
	}

	return info, nil
}

// localized prefers the translated field for lang and falls back to the source text.
func localized(src text, set translationSet, lang domain.Language, field func(rawTranslation) text) string {
	if !lang.IsSource() {
		if tr, ok := set[lang.String()]; ok {
			if v := field(tr); strings.TrimSpace(string(v)) != "" {
				return string(v)
			}
		}
	}
	return string(src)
}

func validEmail(sight, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		log.Warn().Str("sight", sight).Str("email", raw).Msg("dropping malformed contact email")
		return ""
	}
	return addr.Address
}
