package engine

// =============================================================================
// REFERENCE DATA - Externally maintained, read-only policy tables
// =============================================================================

// BlockCategory is why a destination is blocked for SIRW.
type BlockCategory string

const (
	// CategorySanctioned marks countries under UN/EU sanctions.
	CategorySanctioned BlockCategory = "sanctions"

	// CategoryNoEntity marks countries where the company has no legal
	// entity and so cannot ensure tax/immigration/employment compliance.
	CategoryNoEntity BlockCategory = "no_entity"
)

// BlockedCountryEntry is one row of the blocked-country table. The table
// is versioned by the policy owner; the engine treats it as read-only.
type BlockedCountryEntry struct {
	Name     string
	Code     string // ISO 3166-1 alpha-2
	Category BlockCategory
	Region   string

	// Effective range. Nil bounds are open-ended.
	EffectiveFrom *Date
	EffectiveTo   *Date
}

// ActiveOn reports whether the entry is in force on the given date.
func (e BlockedCountryEntry) ActiveOn(d Date) bool {
	if e.EffectiveFrom != nil && d.Before(*e.EffectiveFrom) {
		return false
	}
	if e.EffectiveTo != nil && d.After(*e.EffectiveTo) {
		return false
	}
	return true
}

// Country is a resolved destination or home country.
type Country struct {
	Code string
	Name string
}

// ReferenceData supplies the two externally maintained datasets the
// engine consumes: the blocked-country table and the ineligible-role
// category list. Implementations must be safe for concurrent reads.
type ReferenceData interface {
	// ResolveCountry resolves an ISO code or country name
	// (case-insensitive). Returns false if unknown.
	ResolveCountry(nameOrCode string) (Country, bool)

	// BlockedEntry returns the blocked-country entry in force on asOf
	// for the given code or name, if any.
	BlockedEntry(nameOrCode string, asOf Date) (BlockedCountryEntry, bool)

	// IneligibleRole returns the human-readable description of an
	// ineligible role category, and whether the category is one the
	// policy defines.
	IneligibleRole(cat RoleCategory) (string, bool)
}
