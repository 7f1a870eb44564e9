package pricing

import (
	"github.com/go-playground/validator/v10"
	"github.com/ultimatefreight/freightdesk/pkg/location"
	"github.com/ultimatefreight/freightdesk/pkg/validation"
)

func init() {
	validation.RegisterValidation("supported_currency", func(fl validator.FieldLevel) bool {
		_, ok := location.CurrencyByCode(fl.Field().String())
		return ok
	})
}

// Validate checks raw user input before it reaches CalculatePrice.
// It returns validation.Errors with one entry per offending field.
func Validate(req ShipmentRequest) error {
	var errs validation.Errors
	if err := validation.Struct(req); err != nil {
		verrs, ok := validation.As(err)
		if !ok {
			return err
		}
		errs = verrs
	}

	checkLocation(&errs, "origin", req.OriginCountry, req.OriginCity)
	checkLocation(&errs, "destination", req.DestinationCountry, req.DestinationCity)

	return errs.OrNil()
}

func checkLocation(errs *validation.Errors, side, countryCode, cityCode string) {
	countryField, cityField := side+"Country", side+"City"
	if countryCode == "" || errs.Has(countryField) {
		return
	}
	if _, ok := location.CountryByCode(countryCode); !ok {
		errs.Add(countryField, "is not a serviced country")
		return
	}
	if cityCode == "" || errs.Has(cityField) {
		return
	}
	if _, ok := location.CityByCode(countryCode, cityCode); !ok {
		errs.Add(cityField, "does not belong to "+countryCode)
	}
}
