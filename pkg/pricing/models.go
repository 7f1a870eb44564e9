// Package pricing implements the shipping price estimator: fee breakdown,
// currency conversion and delivery estimate for a single shipment.
package pricing

import "strings"

// ShipmentType is the transport mode of a shipment.
type ShipmentType string

const (
	ShipmentOcean   ShipmentType = "ocean"
	ShipmentAir     ShipmentType = "air"
	ShipmentGround  ShipmentType = "ground"
	ShipmentExpress ShipmentType = "express"
	ShipmentRail    ShipmentType = "rail"
)

// ShipmentTypes lists every supported shipment type.
func ShipmentTypes() []ShipmentType {
	return []ShipmentType{ShipmentOcean, ShipmentAir, ShipmentGround, ShipmentExpress, ShipmentRail}
}

// Valid reports whether t is a supported shipment type.
func (t ShipmentType) Valid() bool {
	for _, st := range ShipmentTypes() {
		if t == st {
			return true
		}
	}
	return false
}

// ReferenceCurrency is the currency base fees are defined in.
const ReferenceCurrency = "USD"

// Upper bounds on accepted shipment measurements. They keep every fee finite.
const (
	MaxWeightKg    = 100000
	MaxDimensionCm = 10000
)

// Dimensions are package dimensions in centimeters.
type Dimensions struct {
	Length float64 `json:"length" validate:"gt=0,lte=10000"`
	Width  float64 `json:"width" validate:"gt=0,lte=10000"`
	Height float64 `json:"height" validate:"gt=0,lte=10000"`
}

// ShipmentRequest is the input to a price calculation.
type ShipmentRequest struct {
	OriginCountry      string       `json:"originCountry" validate:"required"`
	OriginCity         string       `json:"originCity" validate:"required"`
	DestinationCountry string       `json:"destinationCountry" validate:"required"`
	DestinationCity    string       `json:"destinationCity" validate:"required"`
	ShipmentType       ShipmentType `json:"shipmentType" validate:"required,oneof=ocean air ground express rail"`
	WeightKg           float64      `json:"weight" validate:"gt=0,lte=100000"`
	Dimensions         Dimensions   `json:"dimensions"`
	Currency           string       `json:"currency" validate:"required,supported_currency"`
	Urgent             bool         `json:"urgent"`
}

// Normalize trims location and currency codes and upper-cases them, so the
// engine's exact-match rate lookup sees the same code validation accepted.
func (r *ShipmentRequest) Normalize() {
	for _, s := range []*string{&r.OriginCountry, &r.OriginCity,
		&r.DestinationCountry, &r.DestinationCity, &r.Currency} {
		*s = strings.ToUpper(strings.TrimSpace(*s))
	}
	r.ShipmentType = ShipmentType(strings.ToLower(strings.TrimSpace(string(r.ShipmentType))))
}

// Breakdown itemizes the fees in the reference currency.
type Breakdown struct {
	BaseFee       float64 `json:"baseFee"`
	WeightFee     float64 `json:"weightFee"`
	HandlingFee   float64 `json:"handlingFee"`
	FuelSurcharge float64 `json:"fuelSurcharge"`
	InsuranceFee  float64 `json:"insuranceFee"`
	UrgentFee     float64 `json:"urgentFee"`
}

// EstimatedDelivery is the transit estimate. Date is formatted as 2006-01-02.
type EstimatedDelivery struct {
	Days int    `json:"days"`
	Date string `json:"date"`
}

// ShippingCodes are display codes such as "US-NYC". They do not affect the price.
type ShippingCodes struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// PriceResult is the output of a price calculation.
type PriceResult struct {
	Breakdown               Breakdown         `json:"breakdown"`
	ChargeableWeightKg      float64           `json:"chargeableWeightKg"`
	Total                   float64           `json:"price"`
	PriceInSelectedCurrency float64           `json:"priceInSelectedCurrency"`
	Currency                string            `json:"currency"`
	EstimatedDelivery       EstimatedDelivery `json:"estimatedDelivery"`
	ShippingCodes           ShippingCodes     `json:"shippingCodes"`
}
