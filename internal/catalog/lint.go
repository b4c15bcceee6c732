package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Problem is one finding of Lint.
type Problem struct {
	Where   string `json:"where"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return p.Where + ": " + p.Message
}

// Lint checks the load-time invariants the calculator relies on but does not
// enforce: every referenced id exists, ids are unique, prices are sane.
func (c *Catalog) Lint() []Problem {
	var problems []Problem
	add := func(where, format string, args ...any) {
		problems = append(problems, Problem{Where: where, Message: fmt.Sprintf(format, args...)})
	}

	dupes := func(kind string, ids []string) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" {
				add(kind, "empty id")
				continue
			}
			if seen[id] {
				add(kind+"."+id, "duplicate id")
			}
			seen[id] = true
		}
	}

	var serviceIDs, capIDs, industryIDs, scaleIDs, levelIDs, addonIDs, bundleIDs, stepIDs []string
	for _, s := range c.Services {
		serviceIDs = append(serviceIDs, s.ID)
	}
	for _, cp := range c.Capabilities {
		capIDs = append(capIDs, cp.ID)
	}
	for _, in := range c.Industries {
		industryIDs = append(industryIDs, in.ID)
	}
	for _, s := range c.Scales {
		scaleIDs = append(scaleIDs, s.ID)
	}
	for _, l := range c.ServiceLevels {
		levelIDs = append(levelIDs, l.ID)
	}
	for _, a := range c.Addons {
		addonIDs = append(addonIDs, a.ID)
	}
	for _, b := range c.Bundles {
		bundleIDs = append(bundleIDs, b.ID)
	}
	for _, s := range c.Steps {
		stepIDs = append(stepIDs, s.ID)
	}
	dupes("services", serviceIDs)
	dupes("capabilities", capIDs)
	dupes("industries", industryIDs)
	dupes("businessScales", scaleIDs)
	dupes("serviceLevels", levelIDs)
	dupes("addons", addonIDs)
	dupes("bundles", bundleIDs)
	dupes("steps", stepIDs)

	checkRange := func(where string, r Range) {
		if r.Min < 0 || r.Max < 0 {
			add(where, "negative price %v-%v", r.Min, r.Max)
		}
		if r.Min > r.Max {
			add(where, "min %v greater than max %v", r.Min, r.Max)
		}
	}
	checkMultiplier := func(where string, m, adder float64) {
		if m != 0 && m < 1 {
			add(where, "multiplier %v below 1", m)
		}
		if adder < 0 {
			add(where, "negative adder %v", adder)
		}
	}

	for _, s := range c.Services {
		where := "services." + s.ID
		checkRange(where+".basePrice", s.BasePrice)
		for _, id := range s.Capabilities {
			if _, ok := c.Capability(id); !ok {
				add(where, "unknown capability %q", id)
			}
		}
		for _, id := range s.DefaultCapabilities {
			if _, ok := c.Capability(id); !ok {
				add(where+".defaultCapabilities", "unknown capability %q", id)
			}
		}
	}
	for _, cp := range c.Capabilities {
		checkRange("capabilities."+cp.ID+".price", cp.Price)
	}
	for _, a := range c.Addons {
		checkRange("addons."+a.ID+".price", a.Price)
	}
	for _, in := range c.Industries {
		checkMultiplier("industries."+in.ID, in.Multiplier, in.Adder)
	}
	for _, s := range c.Scales {
		checkMultiplier("businessScales."+s.ID, s.Multiplier, s.Adder)
	}
	for _, l := range c.ServiceLevels {
		checkMultiplier("serviceLevels."+l.ID, l.Multiplier, l.Adder)
	}
	for _, b := range c.Bundles {
		where := "bundles." + b.ID
		if len(b.Included) == 0 {
			add(where, "bundle includes nothing")
		}
		if b.Savings < 0 {
			add(where, "negative savings %v", b.Savings)
		}
		for _, id := range b.Included {
			_, isCap := c.Capability(id)
			_, isAddon := c.Addon(id)
			if !isCap && !isAddon {
				add(where, "unknown capability or addon %q", id)
			}
		}
	}

	// Map iteration order is random; keep the report stable.
	serviceKeys := make([]string, 0, len(c.Rules.IncludedCapabilities))
	for id := range c.Rules.IncludedCapabilities {
		serviceKeys = append(serviceKeys, id)
	}
	sort.Strings(serviceKeys)
	for _, serviceID := range serviceKeys {
		where := "pricingRules.includedCapabilitiesByService." + serviceID
		if _, ok := c.Service(serviceID); !ok {
			add(where, "unknown service %q", serviceID)
		}
		for _, id := range c.Rules.IncludedCapabilities[serviceID] {
			if _, ok := c.Capability(id); !ok {
				add(where, "unknown capability %q", id)
			}
		}
	}

	if c.Rules.BundleDiscount < 0 || c.Rules.BundleDiscount >= 1 {
		add("pricingRules.bundleDiscount", "fraction %v outside [0, 1)", c.Rules.BundleDiscount)
	}
	if c.Rules.AnchorMultiplier < 0 {
		add("pricingRules.anchorMultiplier", "negative multiplier %v", c.Rules.AnchorMultiplier)
	}
	if len(c.Steps) == 0 {
		add("steps", "no wizard steps")
	}
	if c.DefaultServiceLevel != "" {
		if _, ok := c.ServiceLevel(c.DefaultServiceLevel); !ok {
			add("defaultServiceLevel", "unknown service level %q", c.DefaultServiceLevel)
		}
	}

	return problems
}

// Validate returns Lint's findings as a single error, or nil.
func (c *Catalog) Validate() error {
	problems := c.Lint()
	if len(problems) == 0 {
		return nil
	}
	errs := make([]error, 0, len(problems))
	for _, p := range problems {
		errs = append(errs, errors.New(p.String()))
	}
	return fmt.Errorf("catalog has %d problem(s): %w", len(problems), errors.Join(errs...))
}
