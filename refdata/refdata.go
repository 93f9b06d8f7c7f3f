/*
Package refdata holds the externally maintained, read-only reference
datasets the decision engine consumes: the ISO country registry, the
blocked-country table (Policy Appendix A) and the ineligible-role
category list.

PURPOSE:
  The engine treats all of this as versioned input supplied by the
  policy owner. Nothing here is mutated at runtime; every lookup is safe
  for concurrent use.

MATCHING:
  Countries resolve by ISO 3166-1 alpha-2 code or by name,
  case-insensitively, mirroring how requests arrive from the intake
  forms ("ES" and "Spain" are the same destination).

SEE ALSO:
  - blocked.go: Sanctioned and no-entity country entries
  - countries.go: ISO country registry
  - roles.go: Ineligible role categories
*/
package refdata

import (
	"strings"

	"github.com/warp/sirw-engine/engine"
)

// =============================================================================
// TABLE - engine.ReferenceData implementation
// =============================================================================

// Table is the standard ReferenceData implementation backed by the
// static datasets in this package. Build once at startup with New.
type Table struct {
	byCode map[string]engine.Country
	byName map[string]engine.Country

	blockedByCode map[string]engine.BlockedCountryEntry
	blockedByName map[string]engine.BlockedCountryEntry

	roles map[engine.RoleCategory]string
}

var _ engine.ReferenceData = (*Table)(nil)

// New builds the lookup table from the packaged datasets.
func New() *Table {
	t := &Table{
		byCode:        make(map[string]engine.Country),
		byName:        make(map[string]engine.Country),
		blockedByCode: make(map[string]engine.BlockedCountryEntry),
		blockedByName: make(map[string]engine.BlockedCountryEntry),
		roles:         make(map[engine.RoleCategory]string),
	}

	for code, name := range isoCountries {
		c := engine.Country{Code: code, Name: name}
		t.byCode[code] = c
		t.byName[strings.ToLower(name)] = c
	}

	for _, e := range AllBlockedCountries() {
		t.blockedByCode[e.Code] = e
		t.blockedByName[strings.ToLower(e.Name)] = e
		// The blocked table is authoritative even for territories the
		// ISO registry file may lag behind on.
		if _, ok := t.byCode[e.Code]; !ok {
			c := engine.Country{Code: e.Code, Name: e.Name}
			t.byCode[e.Code] = c
			t.byName[strings.ToLower(e.Name)] = c
		}
	}

	for cat, msg := range ineligibleRoleCategories {
		t.roles[cat] = msg
	}
	return t
}

// ResolveCountry resolves a country by ISO code or name.
func (t *Table) ResolveCountry(nameOrCode string) (engine.Country, bool) {
	q := strings.TrimSpace(nameOrCode)
	if q == "" {
		return engine.Country{}, false
	}
	if c, ok := t.byCode[strings.ToUpper(q)]; ok {
		return c, true
	}
	c, ok := t.byName[strings.ToLower(q)]
	return c, ok
}

// BlockedEntry returns the blocked-country entry in force on asOf, if
// the country is blocked at all.
func (t *Table) BlockedEntry(nameOrCode string, asOf engine.Date) (engine.BlockedCountryEntry, bool) {
	q := strings.TrimSpace(nameOrCode)
	e, ok := t.blockedByCode[strings.ToUpper(q)]
	if !ok {
		e, ok = t.blockedByName[strings.ToLower(q)]
	}
	if !ok || !e.ActiveOn(asOf) {
		return engine.BlockedCountryEntry{}, false
	}
	return e, true
}

// IneligibleRole returns the description for a policy-defined
// ineligible role category.
func (t *Table) IneligibleRole(cat engine.RoleCategory) (string, bool) {
	msg, ok := t.roles[cat]
	return msg, ok
}

// IsBlocked reports whether a country is blocked for SIRW on the given
// date, regardless of category.
func (t *Table) IsBlocked(nameOrCode string, asOf engine.Date) bool {
	_, ok := t.BlockedEntry(nameOrCode, asOf)
	return ok
}
