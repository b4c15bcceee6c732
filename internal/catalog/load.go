package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// The file schema accepts either a single price or a range, and either a
// multiplier or an adder. Everything is normalized on load.
type fileCatalog struct {
	Services []struct {
		ID                  string   `yaml:"id"`
		Name                string   `yaml:"name"`
		Description         string   `yaml:"description"`
		Icon                string   `yaml:"icon"`
		Category            string   `yaml:"category"`
		BasePrice           *float64 `yaml:"basePrice"`
		BasePriceRange      *Range   `yaml:"basePriceRange"`
		IsMonthly           bool     `yaml:"isMonthly"`
		Recommended         bool     `yaml:"recommended"`
		Pipeline            string   `yaml:"pipeline"`
		Capabilities        []string `yaml:"capabilities"`
		DefaultCapabilities []string `yaml:"defaultCapabilities"`
	} `yaml:"services"`
	Capabilities []struct {
		ID                string   `yaml:"id"`
		Name              string   `yaml:"name"`
		Icon              string   `yaml:"icon"`
		Pitch             string   `yaml:"pitch"`
		Price             *float64 `yaml:"price"`
		PriceRange        *Range   `yaml:"priceRange"`
		PopularBundlePart bool     `yaml:"isPopularBundlePart"`
	} `yaml:"capabilities"`
	Industries []struct {
		ID         string   `yaml:"id"`
		Name       string   `yaml:"name"`
		Subtitle   string   `yaml:"subtitle"`
		Icon       string   `yaml:"icon"`
		Multiplier *float64 `yaml:"multiplier"`
		Adder      float64  `yaml:"adder"`
	} `yaml:"industries"`
	Scales []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Icon        string   `yaml:"icon"`
		Multiplier  *float64 `yaml:"multiplier"`
		Adder       float64  `yaml:"adder"`
	} `yaml:"businessScales"`
	ServiceLevels []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Features    []string `yaml:"features"`
		Multiplier  *float64 `yaml:"multiplier"`
		Adder       float64  `yaml:"adder"`
		Popular     bool     `yaml:"popular"`
	} `yaml:"serviceLevels"`
	Addons []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Icon        string   `yaml:"icon"`
		Price       *float64 `yaml:"price"`
		PriceRange  *Range   `yaml:"priceRange"`
	} `yaml:"addons"`
	Bundles []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Included    []string `yaml:"included"`
		BundlePrice float64  `yaml:"bundlePrice"`
		Savings     float64  `yaml:"savings"`
		Pitch       string   `yaml:"pitch"`
	} `yaml:"bundles"`
	Steps        []Step `yaml:"steps"`
	PricingRules struct {
		Currency               string              `yaml:"currency"`
		BundleDiscount         *float64            `yaml:"bundleDiscount"`
		AnchorMultiplier       *float64            `yaml:"anchorMultiplier"`
		AnchorRangeAdder       Range               `yaml:"anchorRangeAdder"`
		MonthlyManagementAdder float64             `yaml:"monthlyManagementAdder"`
		IncludedCapabilities   map[string][]string `yaml:"includedCapabilitiesByService"`
	} `yaml:"pricingRules"`
	PipelinePriority    []string `yaml:"pipelinePriority"`
	DefaultServiceLevel string   `yaml:"defaultServiceLevel"`
}

// Load reads and normalizes a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f fileCatalog
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	cat := &Catalog{
		Steps:               f.Steps,
		PipelinePriority:    f.PipelinePriority,
		DefaultServiceLevel: f.DefaultServiceLevel,
		Rules: PricingRules{
			Currency:               f.PricingRules.Currency,
			BundleDiscount:         valueOr(f.PricingRules.BundleDiscount, defaultBundleDiscount),
			AnchorMultiplier:       valueOr(f.PricingRules.AnchorMultiplier, 1),
			AnchorRangeAdder:       f.PricingRules.AnchorRangeAdder,
			MonthlyManagementAdder: f.PricingRules.MonthlyManagementAdder,
			IncludedCapabilities:   f.PricingRules.IncludedCapabilities,
		},
	}
	if cat.Rules.Currency == "" {
		cat.Rules.Currency = defaultCurrency
	}
	if cat.Rules.IncludedCapabilities == nil {
		cat.Rules.IncludedCapabilities = map[string][]string{}
	}
	if len(cat.Steps) == 0 {
		cat.Steps = DefaultSteps()
	}
	if cat.DefaultServiceLevel == "" {
		cat.DefaultServiceLevel = defaultServiceLevel
	}

	for _, s := range f.Services {
		cat.Services = append(cat.Services, Service{
			ID:                  s.ID,
			Name:                s.Name,
			Description:         s.Description,
			Icon:                s.Icon,
			Category:            s.Category,
			BasePrice:           priceOf(s.BasePrice, s.BasePriceRange),
			IsMonthly:           s.IsMonthly,
			Recommended:         s.Recommended,
			Pipeline:            s.Pipeline,
			Capabilities:        s.Capabilities,
			DefaultCapabilities: s.DefaultCapabilities,
		})
	}
	for _, c := range f.Capabilities {
		cat.Capabilities = append(cat.Capabilities, Capability{
			ID:                c.ID,
			Name:              c.Name,
			Icon:              c.Icon,
			Pitch:             c.Pitch,
			Price:             priceOf(c.Price, c.PriceRange),
			PopularBundlePart: c.PopularBundlePart,
		})
	}
	for _, in := range f.Industries {
		cat.Industries = append(cat.Industries, Industry{
			ID:         in.ID,
			Name:       in.Name,
			Subtitle:   in.Subtitle,
			Icon:       in.Icon,
			Multiplier: valueOr(in.Multiplier, 1),
			Adder:      in.Adder,
		})
	}
	for _, s := range f.Scales {
		cat.Scales = append(cat.Scales, Scale{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Icon:        s.Icon,
			Multiplier:  valueOr(s.Multiplier, 1),
			Adder:       s.Adder,
		})
	}
	for _, l := range f.ServiceLevels {
		cat.ServiceLevels = append(cat.ServiceLevels, ServiceLevel{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Features:    l.Features,
			Multiplier:  valueOr(l.Multiplier, 1),
			Adder:       l.Adder,
			Popular:     l.Popular,
		})
	}
	for _, a := range f.Addons {
		cat.Addons = append(cat.Addons, Addon{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			Price:       priceOf(a.Price, a.PriceRange),
		})
	}
	for _, b := range f.Bundles {
		cat.Bundles = append(cat.Bundles, Bundle{
			ID:          b.ID,
			Name:        b.Name,
			Included:    b.Included,
			BundlePrice: b.BundlePrice,
			Savings:     b.Savings,
			Pitch:       b.Pitch,
		})
	}

	return cat, nil
}

// priceOf prefers an explicit range; a lone price collapses to {p, p}; neither
// means the item is free.
func priceOf(price *float64, rng *Range) Range {
	switch {
	case rng != nil:
		return *rng
	case price != nil:
		return Fixed(*price)
	default:
		return Range{}
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
