// Package pricing turns a selection of services and options into an itemized
// quote. Every function here is pure: the same catalog and selection always
// produce the same quote.
package pricing

import (
	"math"

	"github.com/Simplici0/quote-estimator/internal/catalog"
)

// LineType tags a breakdown line.
type LineType string

const (
	LineCapability      LineType = "capability"
	LineIndustry        LineType = "industry"
	LineIndustryAdder   LineType = "industry_adder"
	LineScaleMultiplier LineType = "scale_multiplier"
	LineScaleAdder      LineType = "scale_adder"
	LineLevelMultiplier LineType = "service_level_multiplier"
	LineServiceLevel    LineType = "service_level"
	LineAddon           LineType = "addon"
)

// ServiceConfig holds the per-service choices.
type ServiceConfig struct {
	Capabilities []string `json:"capabilities"`
	ServiceLevel string   `json:"serviceLevel"`
	Addons       []string `json:"addons"`
}

// CommonConfig applies to every selected service.
type CommonConfig struct {
	Industry string `json:"industry"`
	Scale    string `json:"scale"`
}

// Selection is everything the calculator needs from the estimator.
type Selection struct {
	Services []string                 `json:"services"`
	Configs  map[string]ServiceConfig `json:"configs"`
	Common   CommonConfig             `json:"common"`
}

// Normalize returns a copy of s whose services form an ordered set, keeping
// the first occurrence of each id, with options only for selected services.
// Selections that come from outside the estimator go through it before
// pricing.
func (s Selection) Normalize() Selection {
	out := Selection{
		Services: make([]string, 0, len(s.Services)),
		Configs:  make(map[string]ServiceConfig, len(s.Services)),
		Common:   s.Common,
	}
	seen := make(map[string]bool, len(s.Services))
	for _, id := range s.Services {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out.Services = append(out.Services, id)
		if cfg, ok := s.Configs[id]; ok {
			out.Configs[id] = cfg
		}
	}
	return out
}

// Line is one itemized contribution to a service subtotal.
type Line struct {
	Type     LineType      `json:"type"`
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Amount   float64       `json:"amount"`
	Range    catalog.Range `json:"range"`
	Included bool          `json:"included,omitempty"`
}

// ServiceQuote is the priced result of one service.
type ServiceQuote struct {
	ServiceID     string        `json:"serviceId"`
	ServiceName   string        `json:"serviceName"`
	ServiceIcon   string        `json:"serviceIcon,omitempty"`
	BasePrice     float64       `json:"basePrice"`
	BaseRange     catalog.Range `json:"baseRange"`
	Subtotal      float64       `json:"subtotal"`
	SubtotalRange catalog.Range `json:"subtotalRange"`
	Breakdown     []Line        `json:"breakdown"`
	IsMonthly     bool          `json:"isMonthly"`
}

// AppliedBundle is a bundle whose items are all present in the selection.
type AppliedBundle struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Savings float64 `json:"savings"`
	Pitch   string  `json:"pitch,omitempty"`
}

// Quote is the full priced selection.
type Quote struct {
	Currency             string          `json:"currency"`
	Services             []ServiceQuote  `json:"services"`
	Subtotal             float64         `json:"subtotal"`
	SubtotalRange        catalog.Range   `json:"subtotalRange"`
	MonthlyAdder         float64         `json:"monthlyAdder,omitempty"`
	AppliedBundles       []AppliedBundle `json:"appliedBundles"`
	BundleDiscount       float64         `json:"bundleDiscount"`
	MultiServiceDiscount float64         `json:"multiServiceDiscount"`
	TotalDiscount        float64         `json:"totalDiscount"`
	FinalTotal           float64         `json:"finalTotal"`
	FinalRange           catalog.Range   `json:"finalRange"`
	// AnchorPrice is a marketing comparison figure; it never feeds back into
	// the totals above.
	AnchorPrice float64       `json:"anchorPrice"`
	AnchorRange catalog.Range `json:"anchorRange"`
	HasMonthly  bool          `json:"hasMonthly"`
}

// round is half away from zero, applied at every multiplicative step so
// breakdown lines always sum to the subtotal.
func round(v float64) float64 {
	return math.Round(v)
}

func roundRange(r catalog.Range) catalog.Range {
	return catalog.Range{Min: round(r.Min), Max: round(r.Max)}
}

func scaleIncrease(sub catalog.Range, multiplier float64) catalog.Range {
	return roundRange(catalog.Range{Min: sub.Min * (multiplier - 1), Max: sub.Max * (multiplier - 1)})
}

// PriceService prices a single service. An unknown service yields a zero
// quote with an empty breakdown; unknown capabilities, levels and add-ons are
// skipped.
func PriceService(cat *catalog.Catalog, serviceID string, cfg ServiceConfig, common CommonConfig) ServiceQuote {
	svc, ok := cat.Service(serviceID)
	if !ok {
		return ServiceQuote{ServiceID: serviceID, Breakdown: []Line{}}
	}

	sub := svc.BasePrice
	lines := make([]Line, 0, len(cfg.Capabilities)+len(cfg.Addons)+4)
	push := func(t LineType, id, name string, amount catalog.Range) {
		sub = sub.Add(amount)
		lines = append(lines, Line{Type: t, ID: id, Name: name, Amount: amount.Point(), Range: amount})
	}

	for _, capID := range cfg.Capabilities {
		capability, ok := cat.Capability(capID)
		if !ok {
			continue
		}
		if cat.Included(serviceID, capID) {
			lines = append(lines, Line{Type: LineCapability, ID: capID, Name: capability.Name, Included: true})
			continue
		}
		push(LineCapability, capID, capability.Name, capability.Price)
	}

	if industry, ok := cat.Industry(common.Industry); ok {
		if industry.Multiplier > 1 {
			push(LineIndustry, industry.ID, industry.Name+" Industry", scaleIncrease(sub, industry.Multiplier))
		}
		if industry.Adder > 0 {
			push(LineIndustryAdder, industry.ID, industry.Name+" Industry Adjustment", catalog.Fixed(industry.Adder))
		}
	}

	if scale, ok := cat.Scale(common.Scale); ok {
		if scale.Multiplier > 1 {
			push(LineScaleMultiplier, scale.ID, scale.Name+" Scale", scaleIncrease(sub, scale.Multiplier))
		}
		if scale.Adder > 0 {
			push(LineScaleAdder, scale.ID, scale.Name+" Adjustment", catalog.Fixed(scale.Adder))
		}
	}

	if level, ok := cat.ServiceLevel(cfg.ServiceLevel); ok {
		if level.Multiplier > 1 {
			push(LineLevelMultiplier, level.ID, level.Name+" Level", scaleIncrease(sub, level.Multiplier))
		}
		if level.Adder > 0 {
			push(LineServiceLevel, level.ID, level.Name+" Level", catalog.Fixed(level.Adder))
		}
	}

	for _, addonID := range cfg.Addons {
		addon, ok := cat.Addon(addonID)
		if !ok {
			continue
		}
		push(LineAddon, addon.ID, addon.Name, addon.Price)
	}

	sub = sub.Clamp()
	return ServiceQuote{
		ServiceID:     serviceID,
		ServiceName:   svc.Name,
		ServiceIcon:   svc.Icon,
		BasePrice:     svc.BasePrice.Point(),
		BaseRange:     svc.BasePrice,
		Subtotal:      sub.Point(),
		SubtotalRange: sub,
		Breakdown:     lines,
		IsMonthly:     svc.IsMonthly,
	}
}

// PriceAll prices every selected service and applies the quote-level
// adjustments: monthly adder, bundle savings or the multi-service fallback
// discount, and the comparison anchor.
func PriceAll(cat *catalog.Catalog, sel Selection) Quote {
	rules := cat.Rules
	q := Quote{
		Currency:       rules.Currency,
		Services:       make([]ServiceQuote, 0, len(sel.Services)),
		AppliedBundles: []AppliedBundle{},
	}

	var sub catalog.Range
	var items []string
	for _, id := range sel.Services {
		cfg := sel.Configs[id]
		line := PriceService(cat, id, cfg, sel.Common)
		q.Services = append(q.Services, line)
		sub = sub.Add(line.SubtotalRange)
		if line.IsMonthly {
			q.HasMonthly = true
		}
		items = append(items, cfg.Capabilities...)
		items = append(items, cfg.Addons...)
	}

	if q.HasMonthly && rules.MonthlyManagementAdder > 0 {
		q.MonthlyAdder = rules.MonthlyManagementAdder
		sub = sub.Add(catalog.Fixed(rules.MonthlyManagementAdder))
	}
	q.SubtotalRange = sub
	q.Subtotal = sub.Point()

	q.AppliedBundles = DetectBundles(cat, items)
	for _, b := range q.AppliedBundles {
		q.BundleDiscount += b.Savings
	}
	// The fractional discount only stands in when no bundle fired.
	if q.BundleDiscount == 0 && len(sel.Services) > 1 {
		q.MultiServiceDiscount = round(q.Subtotal * rules.BundleDiscount)
	}
	q.TotalDiscount = q.BundleDiscount + q.MultiServiceDiscount

	q.FinalRange = catalog.Range{Min: sub.Min - q.TotalDiscount, Max: sub.Max - q.TotalDiscount}.Clamp()
	q.FinalTotal = q.FinalRange.Point()

	q.AnchorPrice = round(q.FinalTotal * rules.AnchorMultiplier)
	q.AnchorRange = catalog.Range{
		Min: round(q.FinalRange.Min*rules.AnchorMultiplier + rules.AnchorRangeAdder.Min),
		Max: round(q.FinalRange.Max*rules.AnchorMultiplier + rules.AnchorRangeAdder.Max),
	}.Clamp()

	return q
}

// DetectBundles returns every bundle whose included ids all appear in ids.
// Bundles are independent; several may apply at once.
func DetectBundles(cat *catalog.Catalog, ids []string) []AppliedBundle {
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}

	active := []AppliedBundle{}
	for _, b := range cat.Bundles {
		// An empty bundle would otherwise apply to every selection.
		if len(b.Included) == 0 {
			continue
		}
		all := true
		for _, id := range b.Included {
			if !present[id] {
				all = false
				break
			}
		}
		if all {
			active = append(active, AppliedBundle{ID: b.ID, Name: b.Name, Savings: b.Savings, Pitch: b.Pitch})
		}
	}
	return active
}
