package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasNoLintProblems(t *testing.T) {
	cat := Default()
	assert.Empty(t, cat.Lint())
	assert.NoError(t, cat.Validate())
}

func TestLookupsAreLenient(t *testing.T) {
	cat := Default()

	svc, ok := cat.Service("new_ghl_setup")
	require.True(t, ok)
	assert.Equal(t, 297.0, svc.BasePrice.Point())

	_, ok = cat.Service("nope")
	assert.False(t, ok)
	_, ok = cat.Capability("nope")
	assert.False(t, ok)
	_, ok = cat.Bundle("nope")
	assert.False(t, ok)
	assert.Equal(t, -1, cat.StepIndex("nope"))
	assert.Equal(t, "services", cat.FirstStep())
}

func TestIncludedAndDefaultCapabilities(t *testing.T) {
	cat := Default()

	assert.True(t, cat.Included("new_ghl_setup", "crm"))
	assert.False(t, cat.Included("platform_migration", "crm"))

	defaults := cat.DefaultCapabilities("new_ghl_setup")
	assert.Equal(t, []string{"funnels", "crm", "workflow_automation"}, defaults)

	// The returned slice must not alias catalog data.
	defaults[0] = "changed"
	assert.Equal(t, "funnels", cat.Rules.IncludedCapabilities["new_ghl_setup"][0])

	assert.Empty(t, cat.DefaultCapabilities("unknown"))
}

func TestLevelRankFollowsCatalogOrder(t *testing.T) {
	cat := Default()
	assert.Less(t, cat.LevelRank("standard"), cat.LevelRank("premium"))
	assert.Less(t, cat.LevelRank("premium"), cat.LevelRank("luxury"))
	assert.Equal(t, -1, cat.LevelRank("gold"))
}

func TestRangeHelpers(t *testing.T) {
	r := Fixed(10).Add(Range{Min: 5, Max: 7})
	assert.Equal(t, Range{Min: 15, Max: 17}, r)
	assert.Equal(t, 17.0, r.Point())
	assert.Equal(t, Range{Min: 0, Max: 3}, Range{Min: -4, Max: 3}.Clamp())
}

func TestLintReportsDanglingReferences(t *testing.T) {
	cat := Default()
	cat.Services[0].Capabilities = append(cat.Services[0].Capabilities, "ghost_cap")
	cat.Bundles[0].Included = append(cat.Bundles[0].Included, "ghost_addon")
	cat.Rules.IncludedCapabilities["ghost_service"] = []string{"crm"}
	cat.Addons = append(cat.Addons, Addon{ID: "rush_delivery", Price: Range{Min: 10, Max: 5}})

	problems := cat.Lint()
	var joined []string
	for _, p := range problems {
		joined = append(joined, p.String())
	}
	text := strings.Join(joined, "\n")

	assert.Contains(t, text, `services.new_ghl_setup: unknown capability "ghost_cap"`)
	assert.Contains(t, text, `bundles.authority_bundle: unknown capability or addon "ghost_addon"`)
	assert.Contains(t, text, `unknown service "ghost_service"`)
	assert.Contains(t, text, "addons.rush_delivery: duplicate id")
	assert.Contains(t, text, "min 10 greater than max 5")
	assert.Error(t, cat.Validate())
}

const sampleYAML = `
services:
  - id: web
    name: Website
    basePrice: 100
    capabilities: [seo]
  - id: care
    name: Care Plan
    basePriceRange: {min: 50, max: 80}
    isMonthly: true
    pipeline: monthly
capabilities:
  - id: seo
    name: SEO
    priceRange: {min: 20, max: 40}
industries:
  - id: legal
    name: Legal
    multiplier: 1.2
  - id: other
    name: Other
businessScales:
  - id: small
    name: Small
    adder: 0
  - id: legacy
    name: Legacy
    multiplier: 1.5
serviceLevels:
  - id: standard
    name: Standard
addons:
  - id: rush
    name: Rush
    price: 25
bundles:
  - id: growth
    name: Growth
    included: [seo, rush]
    savings: 10
pricingRules:
  anchorMultiplier: 2
  includedCapabilitiesByService:
    web: [seo]
`

func TestParseNormalizesPricesAndMultipliers(t *testing.T) {
	cat, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	web, ok := cat.Service("web")
	require.True(t, ok)
	assert.Equal(t, Fixed(100), web.BasePrice)

	care, _ := cat.Service("care")
	assert.Equal(t, Range{Min: 50, Max: 80}, care.BasePrice)
	assert.True(t, care.IsMonthly)

	seo, _ := cat.Capability("seo")
	assert.Equal(t, Range{Min: 20, Max: 40}, seo.Price)

	other, _ := cat.Industry("other")
	assert.Equal(t, 1.0, other.Multiplier)
	legacy, _ := cat.Scale("legacy")
	assert.Equal(t, 1.5, legacy.Multiplier)

	assert.Equal(t, "USD", cat.Rules.Currency)
	assert.Equal(t, 0.05, cat.Rules.BundleDiscount)
	assert.Equal(t, 2.0, cat.Rules.AnchorMultiplier)
	assert.Equal(t, "standard", cat.DefaultServiceLevel)
	assert.Len(t, cat.Steps, 5)
	assert.Empty(t, cat.Lint())
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("services:\n  - id: x\n    prize: 3\n"))
	assert.Error(t, err)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cat.Services, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
