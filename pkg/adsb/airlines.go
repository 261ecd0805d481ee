package adsb

import "strings"

// airlineNames maps ICAO operator designators to display names. It is a convenience
// for display and intentionally incomplete.
var airlineNames = map[string]string{
	"AAL": "American Airlines",
	"UAL": "United Airlines",
	"DAL": "Delta Air Lines",
	"SWA": "Southwest Airlines",
	"JBU": "JetBlue Airways",
	"ASA": "Alaska Airlines",
	"SKW": "SkyWest Airlines",
	"FFT": "Frontier Airlines",
	"NKS": "Spirit Airlines",
	"BAW": "British Airways",
	"AFR": "Air France",
	"DLH": "Lufthansa",
	"KLM": "KLM Royal Dutch Airlines",
	"UAE": "Emirates",
	"QTR": "Qatar Airways",
	"SIA": "Singapore Airlines",
	"ANA": "All Nippon Airways",
	"JAL": "Japan Airlines",
	"CPA": "Cathay Pacific",
	"QFA": "Qantas",
	"ACA": "Air Canada",
	"IBE": "Iberia",
	"SAS": "Scandinavian Airlines",
	"TAP": "TAP Air Portugal",
	"THY": "Turkish Airlines",
	"AAR": "Asiana Airlines",
	"CCA": "Air China",
	"CSN": "China Southern Airlines",
	"CES": "China Eastern Airlines",
}

// AirlineName resolves an operator code to a display name. Unknown codes are
// returned unchanged; an empty code yields "".
func AirlineName(code string) string {
	code = strings.TrimSpace(code)
	if name, ok := airlineNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// operatorFromCallsign extracts the ICAO operator prefix of an airline callsign
// ("BAW123" -> "BAW"). General-aviation callsigns such as registrations yield "".
func operatorFromCallsign(callsign string) string {
	if len(callsign) < 4 {
		return ""
	}
	for i := 0; i < 3; i++ {
		c := callsign[i]
		if c < 'A' || c > 'Z' {
			return ""
		}
	}
	if c := callsign[3]; c < '0' || c > '9' {
		return ""
	}
	return callsign[:3]
}
