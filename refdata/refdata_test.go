package refdata_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/sirw-engine/engine"
	"github.com/warp/sirw-engine/refdata"
)

func TestResolveCountry_ByCodeAndName(t *testing.T) {
	table := refdata.New()

	byCode, ok := table.ResolveCountry("ES")
	require.True(t, ok)
	assert.Equal(t, "Spain", byCode.Name)

	byName, ok := table.ResolveCountry("spain")
	require.True(t, ok)
	assert.Equal(t, "ES", byName.Code)

	// Whitespace and case never matter.
	trimmed, ok := table.ResolveCountry("  eS ")
	require.True(t, ok)
	assert.Equal(t, "ES", trimmed.Code)
}

func TestResolveCountry_Unknown(t *testing.T) {
	table := refdata.New()
	_, ok := table.ResolveCountry("Atlantis")
	assert.False(t, ok)
}

func TestBlockedEntry_SanctionedAndNoEntity(t *testing.T) {
	table := refdata.New()
	asOf := engine.NewDate(2026, time.March, 2)

	iran, ok := table.BlockedEntry("IR", asOf)
	require.True(t, ok)
	assert.Equal(t, engine.CategorySanctioned, iran.Category)

	nepal, ok := table.BlockedEntry("Nepal", asOf)
	require.True(t, ok)
	assert.Equal(t, engine.CategoryNoEntity, nepal.Category)

	_, ok = table.BlockedEntry("ES", asOf)
	assert.False(t, ok, "Spain is not blocked")
}

func TestBlockedTables_Counts(t *testing.T) {
	assert.Len(t, refdata.SanctionedCountries(), 22)
	assert.Len(t, refdata.NoEntityCountries(), 59)
	assert.Len(t, refdata.AllBlockedCountries(), 81)
}

func TestBlockedTables_EveryEntryResolves(t *testing.T) {
	// Blocked entries must be resolvable countries, or the input-validity
	// rule would reject before the blocked-country rule ever fires.
	table := refdata.New()
	for _, e := range refdata.AllBlockedCountries() {
		_, ok := table.ResolveCountry(e.Code)
		assert.True(t, ok, "code %s (%s) must resolve", e.Code, e.Name)
		_, ok = table.ResolveCountry(e.Name)
		assert.True(t, ok, "name %s must resolve", e.Name)
	}
}

func TestIneligibleRole_KnownCategories(t *testing.T) {
	table := refdata.New()

	msg, ok := table.IneligibleRole(engine.RoleCommercialSales)
	require.True(t, ok)
	assert.Contains(t, msg, "contract signing authority")

	for _, cat := range []engine.RoleCategory{
		engine.RoleFrontlineCustomerFacing,
		engine.RoleOnsiteRequired,
		engine.RoleLegalRestrictions,
		engine.RoleCommercialSales,
		engine.RoleProcurement,
		engine.RoleSeniorExecutive,
	} {
		_, ok := table.IneligibleRole(cat)
		assert.True(t, ok, string(cat))
	}

	_, ok = table.IneligibleRole("software_engineer")
	assert.False(t, ok)
}

func TestIsBlocked(t *testing.T) {
	table := refdata.New()
	asOf := engine.NewDate(2026, time.March, 2)

	assert.True(t, table.IsBlocked("North Korea", asOf))
	assert.False(t, table.IsBlocked("Denmark", asOf))
}
