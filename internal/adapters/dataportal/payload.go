package dataportal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type poiResponse struct {
	Data *poiData `json:"data"`
}

type poiData struct {
	Name            text           `json:"name"`
	DescriptionText text           `json:"description_text"`
	Address         *rawAddress    `json:"address"`
	ContactDetails  *rawContact    `json:"contact_details"`
	Texts           []rawText      `json:"texts"`
	Translations    translationSet `json:"all_translations_grouped"`
}

type rawAddress struct {
	Street      text `json:"street"`
	HouseNumber text `json:"house_number"`
	PostalCode  text `json:"postal_code"`
}

type rawContact struct {
	Phone   text `json:"phone"`
	Email   text `json:"email"`
	Website text `json:"website"`
}

type rawText struct {
	Headline     text           `json:"headline"`
	Text         text           `json:"text"`
	Translations translationSet `json:"all_translations_grouped"`
}

// rawTranslation holds the per-language variant of whichever fields apply
// (name/description on the POI, headline/text on a text block).
type rawTranslation struct {
	Name            text `json:"name"`
	DescriptionText text `json:"description_text"`
	Headline        text `json:"headline"`
	Text            text `json:"text"`
}

// translationSet is keyed by language code. The API sends [] instead of {} when empty.
type translationSet map[string]rawTranslation

func (t *translationSet) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte("[]")) {
		*t = nil
		return nil
	}
	var m map[string]rawTranslation
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*t = m
	return nil
}

// text accepts a JSON string, number or null; null becomes "".
type text string

func (s *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = text(v)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = text(n.String())
	default:
		return fmt.Errorf("expected string, number or null, got %s", b)
	}
	return nil
}
