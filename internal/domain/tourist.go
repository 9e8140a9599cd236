package domain

// TouristInformation is the validated, localized record for one sight.
// It is built per lookup and never cached.
type TouristInformation struct {
	Name                  string              `json:"name"`
	Description           string              `json:"description"`
	Address               SightAddress        `json:"address"`
	ContactDetails        SightContactDetails `json:"contact_details"`
	AdditionalInformation []SightText         `json:"additional_information,omitempty"`
	Language              string              `json:"language"`
}

type SightAddress struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	PostalCode  string `json:"postal_code"`
}

type SightContactDetails struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

type SightText struct {
	Headline string `json:"headline"`
	Text     string `json:"text"`
}

// Prediction is the classifier output for one image.
type Prediction struct {
	Label         string             `json:"label"`
	Index         int                `json:"index"`
	Confidence    float32            `json:"confidence"`
	Probabilities map[string]float32 `json:"probabilities"`
}

type RecognitionResult struct {
	Prediction  Prediction         `json:"prediction"`
	SightID     int64              `json:"sight_id"`
	Information TouristInformation `json:"information"`
}
