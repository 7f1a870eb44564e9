package pricing

import "time"

type transitDays struct {
	standard int
	urgent   int
}

// The urgent column is tabulated independently, not derived from the standard one.
var transitTable = map[ShipmentType]transitDays{
	ShipmentExpress: {standard: 2, urgent: 1},
	ShipmentAir:     {standard: 4, urgent: 2},
	ShipmentGround:  {standard: 5, urgent: 3},
	ShipmentRail:    {standard: 8, urgent: 4},
	ShipmentOcean:   {standard: 20, urgent: 10},
}

var unknownTransit = transitDays{standard: 7, urgent: 3}

// DeliveryDays returns the transit estimate in calendar days.
func DeliveryDays(t ShipmentType, urgent bool) int {
	td, ok := transitTable[t]
	if !ok {
		td = unknownTransit
	}
	if urgent {
		return td.urgent
	}
	return td.standard
}

// DeliveryDate adds days calendar days to the date of now, in now's location.
func DeliveryDate(now time.Time, days int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, days)
}
