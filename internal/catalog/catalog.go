// Package catalog holds the static reference data the estimator prices against:
// services, capabilities, industries, business scales, service levels, add-ons,
// bundles, wizard steps and the global pricing rules.
//
// Lookups are lenient: an unknown id reports ok == false and callers treat it as
// a zero-value contribution. Lint reports dangling references up front.
package catalog

// Range is a min/max price pair. A single price is stored as {p, p}.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Fixed collapses a single price into a range.
func Fixed(p float64) Range {
	return Range{Min: p, Max: p}
}

// Point returns the single number used where a range is not wanted.
func (r Range) Point() float64 {
	return r.Max
}

// Add returns the component-wise sum of r and o.
func (r Range) Add(o Range) Range {
	return Range{Min: r.Min + o.Min, Max: r.Max + o.Max}
}

// Clamp returns r with both bounds raised to at least zero.
func (r Range) Clamp() Range {
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max < 0 {
		r.Max = 0
	}
	return r
}

// Service is one purchasable service.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Category    string `json:"category,omitempty"`
	BasePrice   Range  `json:"basePrice"`
	IsMonthly   bool   `json:"isMonthly"`
	Recommended bool   `json:"recommended,omitempty"`
	// Pipeline is the CRM routing key for quotes containing this service.
	Pipeline     string   `json:"pipeline,omitempty"`
	Capabilities []string `json:"capabilities"`
	// DefaultCapabilities are preselected when the service is chosen. When
	// empty the service's included capabilities are used.
	DefaultCapabilities []string `json:"defaultCapabilities,omitempty"`
}

type Capability struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Icon              string `json:"icon,omitempty"`
	Pitch             string `json:"pitch,omitempty"`
	Price             Range  `json:"price"`
	PopularBundlePart bool   `json:"isPopularBundlePart,omitempty"`
}

// Industry scales a service subtotal proportionally.
type Industry struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Subtitle   string  `json:"subtitle,omitempty"`
	Icon       string  `json:"icon,omitempty"`
	Multiplier float64 `json:"multiplier"`
	Adder      float64 `json:"adder"`
}

// Scale is the business size; older catalogs priced it with a multiplier,
// current ones with a flat adder. Both are applied, multiplier first.
type Scale struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Multiplier  float64 `json:"multiplier"`
	Adder       float64 `json:"adder"`
}

type ServiceLevel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
	Multiplier  float64  `json:"multiplier"`
	Adder       float64  `json:"adder"`
	Popular     bool     `json:"popular,omitempty"`
}

// Addon is priced after every multiplicative adjustment.
type Addon struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Price       Range  `json:"price"`
}

// Bundle activates when every id in Included is selected somewhere in the quote.
type Bundle struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Included    []string `json:"included"`
	BundlePrice float64  `json:"bundlePrice,omitempty"`
	Savings     float64  `json:"savings"`
	Pitch       string   `json:"pitch,omitempty"`
}

type Step struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Number    int      `json:"number"`
	Microcopy []string `json:"microcopy,omitempty"`
}

// PricingRules are the global constants of the calculator.
type PricingRules struct {
	Currency string `json:"currency"`
	// BundleDiscount is the fractional multi-service discount used when no
	// bundle fired.
	BundleDiscount         float64 `json:"bundleDiscount"`
	AnchorMultiplier       float64 `json:"anchorMultiplier"`
	AnchorRangeAdder       Range   `json:"anchorRangeAdder"`
	MonthlyManagementAdder float64 `json:"monthlyManagementAdder"`
	// IncludedCapabilities lists, per service, capabilities that cost nothing
	// when chosen with that service.
	IncludedCapabilities map[string][]string `json:"includedCapabilitiesByService"`
}

// Catalog is read-only after construction.
type Catalog struct {
	Services         []Service      `json:"services"`
	Capabilities     []Capability   `json:"capabilities"`
	Industries       []Industry     `json:"industries"`
	Scales           []Scale        `json:"businessScales"`
	ServiceLevels    []ServiceLevel `json:"serviceLevels"`
	Addons           []Addon        `json:"addons"`
	Bundles          []Bundle       `json:"bundles"`
	Steps            []Step         `json:"steps"`
	Rules            PricingRules   `json:"pricingRules"`
	PipelinePriority []string       `json:"pipelinePriority,omitempty"`
	// DefaultServiceLevel is assigned to newly selected services.
	DefaultServiceLevel string `json:"defaultServiceLevel"`
}

func (c *Catalog) Service(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

func (c *Catalog) Capability(id string) (Capability, bool) {
	for _, cp := range c.Capabilities {
		if cp.ID == id {
			return cp, true
		}
	}
	return Capability{}, false
}

func (c *Catalog) Industry(id string) (Industry, bool) {
	for _, in := range c.Industries {
		if in.ID == id {
			return in, true
		}
	}
	return Industry{}, false
}

func (c *Catalog) Scale(id string) (Scale, bool) {
	for _, s := range c.Scales {
		if s.ID == id {
			return s, true
		}
	}
	return Scale{}, false
}

func (c *Catalog) ServiceLevel(id string) (ServiceLevel, bool) {
	for _, l := range c.ServiceLevels {
		if l.ID == id {
			return l, true
		}
	}
	return ServiceLevel{}, false
}

func (c *Catalog) Addon(id string) (Addon, bool) {
	for _, a := range c.Addons {
		if a.ID == id {
			return a, true
		}
	}
	return Addon{}, false
}

func (c *Catalog) Bundle(id string) (Bundle, bool) {
	for _, b := range c.Bundles {
		if b.ID == id {
			return b, true
		}
	}
	return Bundle{}, false
}

func (c *Catalog) Step(id string) (Step, bool) {
	i := c.StepIndex(id)
	if i < 0 {
		return Step{}, false
	}
	return c.Steps[i], true
}

// StepIndex returns the position of the step in the wizard sequence, or -1.
func (c *Catalog) StepIndex(id string) int {
	for i, s := range c.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// FirstStep returns the initial wizard step id.
func (c *Catalog) FirstStep() string {
	if len(c.Steps) == 0 {
		return ""
	}
	return c.Steps[0].ID
}

// Included reports whether capID costs nothing when chosen with serviceID.
func (c *Catalog) Included(serviceID, capID string) bool {
	for _, id := range c.Rules.IncludedCapabilities[serviceID] {
		if id == capID {
			return true
		}
	}
	return false
}

// DefaultCapabilities returns a fresh copy of the capabilities preselected for
// a newly chosen service.
func (c *Catalog) DefaultCapabilities(serviceID string) []string {
	svc, ok := c.Service(serviceID)
	if !ok {
		return []string{}
	}
	src := svc.DefaultCapabilities
	if len(src) == 0 {
		src = c.Rules.IncludedCapabilities[serviceID]
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// LevelRank orders service levels by their catalog position; unknown ids rank -1.
func (c *Catalog) LevelRank(id string) int {
	for i, l := range c.ServiceLevels {
		if l.ID == id {
			return i
		}
	}
	return -1
}
