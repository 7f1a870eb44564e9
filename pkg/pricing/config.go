package pricing

import (
	"errors"
	"fmt"

	"github.com/ultimatefreight/freightdesk/pkg/location"
	"github.com/ultimatefreight/freightdesk/pkg/validation"
)

// ErrInvalidConfig is returned when a pricing configuration fails validation.
var ErrInvalidConfig = errors.New("invalid pricing config")

// Config holds the admin-editable pricing parameters. Fees are in the
// reference currency; percentages are plain percent values (5 means 5%).
type Config struct {
	BaseFees             map[ShipmentType]float64 `json:"baseFees" validate:"required,dive,gt=0"`
	WeightFeePerKg       float64                  `json:"weightFeePerKg" validate:"gt=0"`
	WeightThresholdKg    float64                  `json:"weightThresholdKg" validate:"gt=0"`
	HandlingFeePercent   float64                  `json:"handlingFeePercent" validate:"gte=0"`
	FuelSurchargePercent float64                  `json:"fuelSurchargePercent" validate:"gte=0"`
	InsuranceFeePercent  float64                  `json:"insuranceFeePercent" validate:"gte=0"`
	UrgentFeePercent     float64                  `json:"urgentFeePercent" validate:"gte=0"`
	Currency             string                   `json:"currency"`
	ExchangeRates        map[string]float64       `json:"exchangeRates" validate:"required,dive,gt=0"`
}

// DefaultConfig returns the factory pricing configuration.
func DefaultConfig() Config {
	return Config{
		BaseFees: map[ShipmentType]float64{
			ShipmentOcean:   350,
			ShipmentAir:     550,
			ShipmentGround:  200,
			ShipmentExpress: 650,
			ShipmentRail:    300,
		},
		WeightFeePerKg:       6.6, // $3/lb
		WeightThresholdKg:    4.5, // 10 lb
		HandlingFeePercent:   5,
		FuelSurchargePercent: 10,
		InsuranceFeePercent:  0.5,
		UrgentFeePercent:     50,
		Currency:             ReferenceCurrency,
		ExchangeRates: map[string]float64{
			"USD": 1,
			"EUR": 0.92,
			"GBP": 0.79,
			"INR": 83.5,
			"CAD": 1.36,
			"AUD": 1.52,
			"JPY": 150.5,
			"CNY": 7.24,
		},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.BaseFees = make(map[ShipmentType]float64, len(c.BaseFees))
	for k, v := range c.BaseFees {
		out.BaseFees[k] = v
	}
	out.ExchangeRates = make(map[string]float64, len(c.ExchangeRates))
	for k, v := range c.ExchangeRates {
		out.ExchangeRates[k] = v
	}
	return out
}

// Validate checks an admin-supplied configuration before it is stored.
// The engine itself never calls it: it tolerates incomplete configs.
func (c Config) Validate() error {
	var errs validation.Errors
	if err := validation.Struct(c); err != nil {
		if verrs, ok := validation.As(err); ok {
			errs = verrs
		}
	}

	for _, st := range ShipmentTypes() {
		if _, ok := c.BaseFees[st]; !ok {
			field := "baseFees." + string(st)
			if !errs.Has(field) {
				errs.Add(field, "is required")
			}
		}
	}
	for st := range c.BaseFees {
		if !st.Valid() {
			errs.Add("baseFees."+string(st), "is not a supported shipment type")
		}
	}
	for code := range c.ExchangeRates {
		if cur, ok := location.CurrencyByCode(code); !ok || cur.Code != code {
			errs.Add("exchangeRates."+code, "is not a supported currency code")
		}
	}
	if _, ok := c.ExchangeRates[ReferenceCurrency]; !ok && !errs.Has("exchangeRates") {
		errs.Add("exchangeRates."+ReferenceCurrency, "is required")
	}

	if err := errs.OrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
