package domain

import "sort"

// LatLng is a country centroid used to place map markers.
type LatLng struct {
	Lat float64
	Lng float64
}

var countryNames = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"GB": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"IT": "Italy",
	"ES": "Spain",
	"NL": "Netherlands",
	"SE": "Sweden",
	"NO": "Norway",
	"DK": "Denmark",
	"FI": "Finland",
	"CH": "Switzerland",
	"AT": "Austria",
	"BE": "Belgium",
	"IE": "Ireland",
	"PL": "Poland",
	"CZ": "Czech Republic",
	"HU": "Hungary",
	"RO": "Romania",
	"BG": "Bulgaria",
	"HR": "Croatia",
	"SI": "Slovenia",
	"SK": "Slovakia",
	"LT": "Lithuania",
	"LV": "Latvia",
	"EE": "Estonia",
	"RU": "Russia",
	"UA": "Ukraine",
	"JP": "Japan",
	"KR": "South Korea",
	"CN": "China",
	"IN": "India",
	"SG": "Singapore",
	"HK": "Hong Kong",
	"TW": "Taiwan",
	"TH": "Thailand",
	"MY": "Malaysia",
	"ID": "Indonesia",
	"PH": "Philippines",
	"VN": "Vietnam",
	"AU": "Australia",
	"NZ": "New Zealand",
	"BR": "Brazil",
	"MX": "Mexico",
	"AR": "Argentina",
	"CL": "Chile",
	"CO": "Colombia",
	"PE": "Peru",
	"VE": "Venezuela",
	"ZA": "South Africa",
	"EG": "Egypt",
	"NG": "Nigeria",
	"KE": "Kenya",
	"MA": "Morocco",
	"GH": "Ghana",
	"TN": "Tunisia",
	"DZ": "Algeria",
	"IL": "Israel",
	"TR": "Turkey",
	"SA": "Saudi Arabia",
	"AE": "United Arab Emirates",
	"QA": "Qatar",
	"KW": "Kuwait",
	"BH": "Bahrain",
	"OM": "Oman",
	"JO": "Jordan",
	"LB": "Lebanon",
	"IQ": "Iraq",
	"IR": "Iran",
	"PK": "Pakistan",
	"BD": "Bangladesh",
	"LK": "Sri Lanka",
	"NP": "Nepal",
	"MM": "Myanmar",
	"KH": "Cambodia",
	"LA": "Laos",
}

var countryCoordinates = map[string]LatLng{
	"US": {Lat: 39.8283, Lng: -98.5795},
	"CA": {Lat: 56.1304, Lng: -106.3468},
	"GB": {Lat: 55.3781, Lng: -3.4360},
	"DE": {Lat: 51.1657, Lng: 10.4515},
	"FR": {Lat: 46.2276, Lng: 2.2137},
	"JP": {Lat: 36.2048, Lng: 138.2529},
	"AU": {Lat: -25.2744, Lng: 133.7751},
	"BR": {Lat: -14.2350, Lng: -51.9253},
	"IN": {Lat: 20.5937, Lng: 78.9629},
	"CN": {Lat: 35.8617, Lng: 104.1954},
	"RU": {Lat: 61.5240, Lng: 105.3188},
	"MX": {Lat: 23.6345, Lng: -102.5528},
	"IT": {Lat: 41.8719, Lng: 12.5674},
	"ES": {Lat: 40.4637, Lng: -3.7492},
	"NL": {Lat: 52.1326, Lng: 5.2913},
	"SE": {Lat: 60.1282, Lng: 18.6435},
	"NO": {Lat: 60.4720, Lng: 8.4689},
	"DK": {Lat: 56.2639, Lng: 9.5018},
	"FI": {Lat: 61.9241, Lng: 25.7482},
	"CH": {Lat: 46.8182, Lng: 8.2275},
	"AT": {Lat: 47.5162, Lng: 14.5501},
	"BE": {Lat: 50.5039, Lng: 4.4699},
	"PT": {Lat: 39.3999, Lng: -8.2245},
	"PL": {Lat: 51.9194, Lng: 19.1451},
	"CZ": {Lat: 49.8175, Lng: 15.4730},
	"HU": {Lat: 47.1625, Lng: 19.5033},
	"GR": {Lat: 39.0742, Lng: 21.8243},
	"TR": {Lat: 38.9637, Lng: 35.2433},
	"IE": {Lat: 53.4129, Lng: -8.2439},
	"NZ": {Lat: -40.9006, Lng: 174.8860},
	"SG": {Lat: 1.3521, Lng: 103.8198},
	"HK": {Lat: 22.3193, Lng: 114.1694},
	"KR": {Lat: 35.9078, Lng: 127.7669},
	"TH": {Lat: 15.8700, Lng: 100.9925},
	"MY": {Lat: 4.2105, Lng: 101.9758},
	"ID": {Lat: -0.7893, Lng: 113.9213},
	"PH": {Lat: 12.8797, Lng: 121.7740},
	"VN": {Lat: 14.0583, Lng: 108.2772},
	"ZA": {Lat: -30.5595, Lng: 22.9375},
	"EG": {Lat: 26.8206, Lng: 30.8025},
	"NG": {Lat: 9.0820, Lng: 8.6753},
	"KE": {Lat: -0.0236, Lng: 37.9062},
	"AR": {Lat: -38.4161, Lng: -63.6167},
	"CL": {Lat: -35.6751, Lng: -71.5430},
	"CO": {Lat: 4.5709, Lng: -74.2973},
	"PE": {Lat: -9.1900, Lng: -75.0152},
	"VE": {Lat: 6.4238, Lng: -66.5897},
	"UY": {Lat: -32.5228, Lng: -55.7658},
	"PY": {Lat: -23.4425, Lng: -58.4438},
	"BO": {Lat: -16.2902, Lng: -63.5887},
	"EC": {Lat: -1.8312, Lng: -78.1834},
	"CR": {Lat: 9.7489, Lng: -83.7534},
	"PA": {Lat: 8.5380, Lng: -80.7821},
	"GT": {Lat: 15.7835, Lng: -90.2308},
	"HN": {Lat: 15.2000, Lng: -86.2419},
	"SV": {Lat: 13.7942, Lng: -88.8965},
	"NI": {Lat: 12.8654, Lng: -85.2072},
	"BZ": {Lat: 17.1899, Lng: -88.4976},
	"JM": {Lat: 18.1096, Lng: -77.2975},
	"CU": {Lat: 21.5218, Lng: -77.7812},
	"DO": {Lat: 18.7357, Lng: -70.1627},
	"HT": {Lat: 18.9712, Lng: -72.2852},
	"TT": {Lat: 10.6918, Lng: -61.2225},
	"BB": {Lat: 13.1939, Lng: -59.5432},
	"BS": {Lat: 25.0343, Lng: -77.3963},
	"PR": {Lat: 18.2208, Lng: -66.5901},
	"VI": {Lat: 18.3358, Lng: -64.8963},
}

// CountryName returns the display name for an ISO code, or the code itself
// when the table has no entry.
func CountryName(code string) string {
	if n, ok := countryNames[code]; ok {
		return n
	}
	return code
}

// CountryCoordinates reports the centroid for code. Codes without an entry
// are left off the map.
func CountryCoordinates(code string) (LatLng, bool) {
	c, ok := countryCoordinates[code]
	return c, ok
}

// KnownCountry reports whether code has a display name.
func KnownCountry(code string) bool {
	_, ok := countryNames[code]
	return ok
}

// CountryCodes returns every code with a display name, sorted, for select inputs.
func CountryCodes() []string {
	out := make([]string, 0, len(countryNames))
	for c := range countryNames {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
