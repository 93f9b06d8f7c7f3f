/*
blocked.go - Blocked countries for SIRW requests

Two categories (Policy Appendix A):
  1. Sanctions  - countries under UN/EU sanctions
  2. NoEntity   - countries where the company has no legal entity

SIRW cannot be performed in any of these countries. Entries carry an
optional effective range so the policy owner can version the table
without code changes; open-ended entries are always in force.
*/
package refdata

import "github.com/warp/sirw-engine/engine"

func blocked(name, code string, cat engine.BlockCategory, region string) engine.BlockedCountryEntry {
	return engine.BlockedCountryEntry{Name: name, Code: code, Category: cat, Region: region}
}

// SanctionedCountries returns the UN/EU sanctioned country entries.
func SanctionedCountries() []engine.BlockedCountryEntry {
	s := engine.CategorySanctioned
	return []engine.BlockedCountryEntry{
		// Asia Pacific
		blocked("Afghanistan", "AF", s, "Asia Pacific"),
		blocked("North Korea", "KP", s, "Asia Pacific"),
		blocked("Iran", "IR", s, "Asia Pacific"),
		blocked("Iraq", "IQ", s, "Asia Pacific"),
		blocked("Myanmar", "MM", s, "Asia Pacific"),
		// Europe
		blocked("Bosnia and Herzegovina", "BA", s, "Europe"),
		blocked("Russia", "RU", s, "Europe"),
		blocked("Turkey", "TR", s, "Europe"),
		blocked("Ukraine", "UA", s, "Europe"),
		// India, Middle East & Africa
		blocked("Central African Republic", "CF", s, "IMEA"),
		blocked("Congo (DRC)", "CD", s, "IMEA"),
		blocked("Guinea", "GN", s, "IMEA"),
		blocked("Libya", "LY", s, "IMEA"),
		blocked("Somalia", "SO", s, "IMEA"),
		blocked("South Sudan", "SS", s, "IMEA"),
		blocked("Sudan", "SD", s, "IMEA"),
		blocked("Syria", "SY", s, "IMEA"),
		blocked("Yemen", "YE", s, "IMEA"),
		blocked("Zimbabwe", "ZW", s, "IMEA"),
		// North America
		blocked("Haiti", "HT", s, "North America"),
		blocked("Nicaragua", "NI", s, "North America"),
		// Latin America
		blocked("Venezuela", "VE", s, "Latin America"),
	}
}

// NoEntityCountries returns countries without a company legal entity.
func NoEntityCountries() []engine.BlockedCountryEntry {
	n := engine.CategoryNoEntity
	return []engine.BlockedCountryEntry{
		// Asia Pacific
		blocked("Brunei", "BN", n, "Asia Pacific"),
		blocked("Bhutan", "BT", n, "Asia Pacific"),
		blocked("Fiji", "FJ", n, "Asia Pacific"),
		blocked("Kiribati", "KI", n, "Asia Pacific"),
		blocked("Laos", "LA", n, "Asia Pacific"),
		blocked("Maldives", "MV", n, "Asia Pacific"),
		blocked("Marshall Islands", "MH", n, "Asia Pacific"),
		blocked("Micronesia", "FM", n, "Asia Pacific"),
		blocked("Mongolia", "MN", n, "Asia Pacific"),
		blocked("Nauru", "NR", n, "Asia Pacific"),
		blocked("Nepal", "NP", n, "Asia Pacific"),
		blocked("Palau", "PW", n, "Asia Pacific"),
		blocked("Papua New Guinea", "PG", n, "Asia Pacific"),
		blocked("Samoa", "WS", n, "Asia Pacific"),
		blocked("Solomon Islands", "SB", n, "Asia Pacific"),
		blocked("Timor-Leste", "TL", n, "Asia Pacific"),
		blocked("Tonga", "TO", n, "Asia Pacific"),
		blocked("Turkmenistan", "TM", n, "Asia Pacific"),
		blocked("Tuvalu", "TV", n, "Asia Pacific"),
		blocked("Uzbekistan", "UZ", n, "Asia Pacific"),
		blocked("Vanuatu", "VU", n, "Asia Pacific"),
		// Europe
		blocked("Albania", "AL", n, "Europe"),
		blocked("Andorra", "AD", n, "Europe"),
		blocked("Armenia", "AM", n, "Europe"),
		blocked("Azerbaijan", "AZ", n, "Europe"),
		blocked("Cyprus", "CY", n, "Europe"),
		blocked("Iceland", "IS", n, "Europe"),
		blocked("Liechtenstein", "LI", n, "Europe"),
		blocked("Luxembourg", "LU", n, "Europe"),
		blocked("Malta", "MT", n, "Europe"),
		blocked("Monaco", "MC", n, "Europe"),
		blocked("Montenegro", "ME", n, "Europe"),
		blocked("North Macedonia", "MK", n, "Europe"),
		blocked("Moldova", "MD", n, "Europe"),
		blocked("San Marino", "SM", n, "Europe"),
		// India, Middle East & Africa
		blocked("Burundi", "BI", n, "IMEA"),
		blocked("Chad", "TD", n, "IMEA"),
		blocked("Comoros", "KM", n, "IMEA"),
		blocked("Equatorial Guinea", "GQ", n, "IMEA"),
		blocked("Eritrea", "ER", n, "IMEA"),
		blocked("Guinea-Bissau", "GW", n, "IMEA"),
		blocked("Kazakhstan", "KZ", n, "IMEA"),
		blocked("Kyrgyzstan", "KG", n, "IMEA"),
		blocked("Sao Tome and Principe", "ST", n, "IMEA"),
		blocked("Seychelles", "SC", n, "IMEA"),
		blocked("Tajikistan", "TJ", n, "IMEA"),
		// North America
		blocked("Antigua and Barbuda", "AG", n, "North America"),
		blocked("Bahamas", "BS", n, "North America"),
		blocked("Barbados", "BB", n, "North America"),
		blocked("Cuba", "CU", n, "North America"),
		blocked("Dominica", "DM", n, "North America"),
		blocked("Grenada", "GD", n, "North America"),
		blocked("Jamaica", "JM", n, "North America"),
		blocked("Saint Kitts and Nevis", "KN", n, "North America"),
		blocked("Saint Lucia", "LC", n, "North America"),
		blocked("Saint Vincent and the Grenadines", "VC", n, "North America"),
		// Latin America
		blocked("Belize", "BZ", n, "Latin America"),
		blocked("Guyana", "GY", n, "Latin America"),
		blocked("Suriname", "SR", n, "Latin America"),
	}
}

// AllBlockedCountries returns the combined blocked-country table.
func AllBlockedCountries() []engine.BlockedCountryEntry {
	return append(SanctionedCountries(), NoEntityCountries()...)
}
