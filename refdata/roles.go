/*
roles.go - Ineligible role categories

The policy excludes certain role types from SIRW entirely. Commercial,
procurement and executive roles create Permanent Establishment risk
(tax/legal exposure from conducting business abroad); the others are
operationally bound to a location. The set is a fixed enum so matching
stays deterministic; free-text role descriptions never enter the engine.
*/
package refdata

import "github.com/warp/sirw-engine/engine"

// ineligibleRoleCategories maps each policy-defined category to the
// phrase used in rejection messages.
var ineligibleRoleCategories = map[engine.RoleCategory]string{
	engine.RoleFrontlineCustomerFacing: "frontline or customer-facing role",
	engine.RoleOnsiteRequired:          "role that must be performed on-site",
	engine.RoleLegalRestrictions:       "role with legal restrictions preventing remote work abroad",
	engine.RoleCommercialSales:         "commercial/sales role with contract signing authority",
	engine.RoleProcurement:             "procurement role with contract signing authority",
	engine.RoleSeniorExecutive:         "senior executive leadership role",
}

// IneligibleRoleCategories returns the policy-defined category set.
func IneligibleRoleCategories() []engine.RoleCategory {
	out := make([]engine.RoleCategory, 0, len(ineligibleRoleCategories))
	for cat := range ineligibleRoleCategories {
		out = append(out, cat)
	}
	return out
}
