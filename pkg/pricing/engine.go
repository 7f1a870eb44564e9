package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ultimatefreight/freightdesk/pkg/location"
)

// VolumetricDivisor converts cubic centimeters to dimensional kilograms.
const VolumetricDivisor = 5000

// DateLayout is the format of EstimatedDelivery.Date.
const DateLayout = "2006-01-02"

// CalculatePrice prices a shipment against cfg. It performs no I/O and never
// fails: unknown shipment types fall back to the ocean base fee and unknown
// currencies to a 1:1 rate. Inputs are expected to have passed Validate.
func CalculatePrice(req ShipmentRequest, cfg Config, now time.Time) PriceResult {
	baseFee := baseFeeFor(cfg, req.ShipmentType)

	chargeable := ChargeableWeight(req.WeightKg, req.Dimensions)

	var weightFee float64
	if chargeable > cfg.WeightThresholdKg {
		weightFee = (chargeable - cfg.WeightThresholdKg) * cfg.WeightFeePerKg
	}

	handlingFee := baseFee * cfg.HandlingFeePercent / 100
	fuelSurcharge := baseFee * cfg.FuelSurchargePercent / 100
	insuranceFee := (baseFee + weightFee) * cfg.InsuranceFeePercent / 100

	var urgentFee float64
	if req.Urgent {
		urgentFee = (baseFee + weightFee) * cfg.UrgentFeePercent / 100
	}

	total := baseFee + weightFee + handlingFee + fuelSurcharge + insuranceFee + urgentFee
	converted := total * exchangeRate(cfg, req.Currency)

	days := DeliveryDays(req.ShipmentType, req.Urgent)

	return PriceResult{
		Breakdown: Breakdown{
			BaseFee:       RoundCents(baseFee),
			WeightFee:     RoundCents(weightFee),
			HandlingFee:   RoundCents(handlingFee),
			FuelSurcharge: RoundCents(fuelSurcharge),
			InsuranceFee:  RoundCents(insuranceFee),
			UrgentFee:     RoundCents(urgentFee),
		},
		ChargeableWeightKg:      finite(chargeable),
		Total:                   RoundCents(total),
		PriceInSelectedCurrency: RoundCents(converted),
		Currency:                req.Currency,
		EstimatedDelivery: EstimatedDelivery{
			Days: days,
			Date: DeliveryDate(now, days).Format(DateLayout),
		},
		ShippingCodes: ShippingCodes{
			Origin:      location.ShippingCode(req.OriginCountry, req.OriginCity),
			Destination: location.ShippingCode(req.DestinationCountry, req.DestinationCity),
		},
	}
}

// DimensionalWeight returns ceil(L*W*H / 5000) kilograms.
func DimensionalWeight(d Dimensions) float64 {
	return math.Ceil(d.Length * d.Width * d.Height / VolumetricDivisor)
}

// ChargeableWeight is the greater of actual and dimensional weight.
func ChargeableWeight(weightKg float64, d Dimensions) float64 {
	return math.Max(weightKg, DimensionalWeight(d))
}

// RoundCents rounds half-up to two decimal places. NaN becomes 0 and an
// infinity saturates to the largest finite float of the same sign.
func RoundCents(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return RoundCents(v)
	}
	return v
}

func baseFeeFor(cfg Config, t ShipmentType) float64 {
	if fee, ok := cfg.BaseFees[t]; ok {
		return fee
	}
	if fee, ok := cfg.BaseFees[ShipmentOcean]; ok {
		return fee
	}
	return DefaultConfig().BaseFees[ShipmentOcean]
}

func exchangeRate(cfg Config, currency string) float64 {
	if rate, ok := cfg.ExchangeRates[currency]; ok && rate > 0 {
		return rate
	}
	return 1
}
