package service

import (
	"strings"

	"github.com/ultimatefreight/freightdesk/pkg/validation"
)

// QuoteRequest is a request for a freight quote submitted from the website.
type QuoteRequest struct {
	FullName       string `json:"fullName" validate:"min=2"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone"`
	Company        string `json:"company"`
	ShipmentType   string `json:"shipmentType"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	AdditionalInfo string `json:"additionalInfo"`
	Terms          bool   `json:"terms" validate:"eq=true"`
}

// Normalize trims surrounding whitespace from every text field.
func (q *QuoteRequest) Normalize() {
	for _, s := range []*string{&q.FullName, &q.Email, &q.Phone, &q.Company,
		&q.ShipmentType, &q.Origin, &q.Destination, &q.AdditionalInfo} {
		*s = strings.TrimSpace(*s)
	}
}

// Validate checks the request after normalization.
func (q QuoteRequest) Validate() error {
	return validation.Struct(q)
}

// ContactMessage is a general enquiry sent through the contact form.
type ContactMessage struct {
	Name    string `json:"name" validate:"min=2"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"min=2"`
	Message string `json:"message" validate:"min=10"`
}

// Normalize trims surrounding whitespace from every field.
func (m *ContactMessage) Normalize() {
	for _, s := range []*string{&m.Name, &m.Email, &m.Subject, &m.Message} {
		*s = strings.TrimSpace(*s)
	}
}

// Validate checks the message after normalization.
func (m ContactMessage) Validate() error {
	return validation.Struct(m)
}
