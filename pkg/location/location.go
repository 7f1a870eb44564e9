// Package location holds the static reference list of serviced countries,
// cities and currencies used by the price estimator.
package location

import "strings"

// Country is a serviced country.
type Country struct {
	Code         string `json:"code"` // ISO 3166-1 alpha-2
	Name         string `json:"name"`
	ShippingCode string `json:"shippingCode"`
	Cities       []City `json:"cities"`
}

// City is a serviced city, identified by its port/airport style code.
type City struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Currency is a currency quotes can be converted to.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var countries = []Country{
	{Code: "US", Name: "United States", ShippingCode: "US", Cities: []City{
		{"New York", "NYC"}, {"Los Angeles", "LAX"}, {"Chicago", "CHI"}, {"Houston", "HOU"},
		{"Miami", "MIA"}, {"San Francisco", "SFO"}, {"Seattle", "SEA"}, {"Boston", "BOS"},
		{"Atlanta", "ATL"}, {"Dallas", "DFW"},
	}},
	{Code: "GB", Name: "United Kingdom", ShippingCode: "GB", Cities: []City{
		{"London", "LON"}, {"Manchester", "MAN"}, {"Birmingham", "BHX"}, {"Liverpool", "LIV"},
		{"Glasgow", "GLA"}, {"Edinburgh", "EDI"}, {"Bristol", "BRS"}, {"Leeds", "LBA"},
	}},
	{Code: "IN", Name: "India", ShippingCode: "IN", Cities: []City{
		{"Mumbai", "BOM"}, {"Delhi", "DEL"}, {"Bangalore", "BLR"}, {"Chennai", "MAA"},
		{"Kolkata", "CCU"}, {"Hyderabad", "HYD"}, {"Pune", "PNQ"}, {"Ahmedabad", "AMD"},
	}},
	{Code: "CN", Name: "China", ShippingCode: "CN", Cities: []City{
		{"Shanghai", "SHA"}, {"Beijing", "PEK"}, {"Guangzhou", "CAN"}, {"Shenzhen", "SZX"},
		{"Hong Kong", "HKG"}, {"Ningbo", "NGB"}, {"Qingdao", "TAO"}, {"Tianjin", "TSN"},
	}},
	{Code: "DE", Name: "Germany", ShippingCode: "DE", Cities: []City{
		{"Berlin", "BER"}, {"Hamburg", "HAM"}, {"Munich", "MUC"}, {"Frankfurt", "FRA"},
		{"Cologne", "CGN"}, {"Stuttgart", "STR"}, {"Düsseldorf", "DUS"}, {"Dortmund", "DTM"},
	}},
	{Code: "FR", Name: "France", ShippingCode: "FR", Cities: []City{
		{"Paris", "PAR"}, {"Marseille", "MRS"}, {"Lyon", "LYS"}, {"Toulouse", "TLS"},
		{"Nice", "NCE"}, {"Nantes", "NTE"}, {"Strasbourg", "SXB"}, {"Bordeaux", "BOD"},
	}},
	{Code: "JP", Name: "Japan", ShippingCode: "JP", Cities: []City{
		{"Tokyo", "NRT"}, {"Osaka", "OSA"}, {"Yokohama", "YOK"}, {"Nagoya", "NGO"},
		{"Sapporo", "SPK"}, {"Fukuoka", "FUK"}, {"Kobe", "UKB"}, {"Kyoto", "KYO"},
	}},
	{Code: "CA", Name: "Canada", ShippingCode: "CA", Cities: []City{
		{"Toronto", "YYZ"}, {"Vancouver", "YVR"}, {"Montreal", "YUL"}, {"Calgary", "YYC"},
		{"Edmonton", "YEG"}, {"Ottawa", "YOW"}, {"Winnipeg", "YWG"}, {"Quebec City", "YQB"},
	}},
	{Code: "AU", Name: "Australia", ShippingCode: "AU", Cities: []City{
		{"Sydney", "SYD"}, {"Melbourne", "MEL"}, {"Brisbane", "BNE"}, {"Perth", "PER"},
		{"Adelaide", "ADL"}, {"Gold Coast", "OOL"}, {"Newcastle", "NTL"}, {"Canberra", "CBR"},
	}},
	{Code: "AE", Name: "United Arab Emirates", ShippingCode: "AE", Cities: []City{
		{"Dubai", "DXB"}, {"Abu Dhabi", "AUH"}, {"Sharjah", "SHJ"}, {"Ajman", "AJM"},
	}},
	{Code: "SG", Name: "Singapore", ShippingCode: "SG", Cities: []City{
		{"Singapore", "SIN"},
	}},
	{Code: "NL", Name: "Netherlands", ShippingCode: "NL", Cities: []City{
		{"Amsterdam", "AMS"}, {"Rotterdam", "RTM"}, {"The Hague", "HAG"}, {"Utrecht", "UTC"},
		{"Eindhoven", "EIN"},
	}},
	{Code: "IT", Name: "Italy", ShippingCode: "IT", Cities: []City{
		{"Rome", "ROM"}, {"Milan", "MIL"}, {"Naples", "NAP"}, {"Turin", "TRN"},
		{"Palermo", "PMO"}, {"Genoa", "GOA"}, {"Bologna", "BLQ"}, {"Florence", "FLR"},
	}},
	{Code: "ES", Name: "Spain", ShippingCode: "ES", Cities: []City{
		{"Madrid", "MAD"}, {"Barcelona", "BCN"}, {"Valencia", "VLC"}, {"Seville", "SVQ"},
		{"Bilbao", "BIO"}, {"Malaga", "AGP"},
	}},
	{Code: "BR", Name: "Brazil", ShippingCode: "BR", Cities: []City{
		{"São Paulo", "SAO"}, {"Rio de Janeiro", "RIO"}, {"Brasília", "BSB"}, {"Salvador", "SSA"},
		{"Fortaleza", "FOR"}, {"Belo Horizonte", "BHZ"},
	}},
}

var currencies = []Currency{
	{Code: "USD", Symbol: "$", Name: "US Dollar"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
	{Code: "GBP", Symbol: "£", Name: "British Pound"},
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
	{Code: "CAD", Symbol: "C$", Name: "Canadian Dollar"},
	{Code: "AUD", Symbol: "A$", Name: "Australian Dollar"},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen"},
	{Code: "CNY", Symbol: "¥", Name: "Chinese Yuan"},
}

// Countries returns a copy of the serviced countries.
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

// Currencies returns a copy of the supported currencies.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

// CountryByCode looks up a country by ISO code (case-insensitive).
func CountryByCode(code string) (Country, bool) {
	for _, c := range countries {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

// CityByCode looks up a city within a country.
func CityByCode(countryCode, cityCode string) (City, bool) {
	country, ok := CountryByCode(countryCode)
	if !ok {
		return City{}, false
	}
	for _, c := range country.Cities {
		if strings.EqualFold(c.Code, cityCode) {
			return c, true
		}
	}
	return City{}, false
}

// CurrencyByCode looks up a supported currency.
func CurrencyByCode(code string) (Currency, bool) {
	for _, c := range currencies {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Currency{}, false
}

// ShippingCode builds the display code "<country>-<city>", e.g. "US-NYC".
// A part that cannot be resolved is left empty rather than failing.
func ShippingCode(countryCode, cityCode string) string {
	var countryPart, cityPart string
	if country, ok := CountryByCode(countryCode); ok {
		countryPart = country.ShippingCode
	}
	if city, ok := CityByCode(countryCode, cityCode); ok {
		cityPart = city.Code
	}
	return countryPart + "-" + cityPart
}
