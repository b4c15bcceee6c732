package estimator

import "github.com/Simplici0/quote-estimator/internal/pricing"

// ServiceConfigPatch is a shallow merge: nil fields are left alone.
type ServiceConfigPatch struct {
	Capabilities *[]string `json:"capabilities,omitempty"`
	ServiceLevel *string   `json:"serviceLevel,omitempty"`
	Addons       *[]string `json:"addons,omitempty"`
}

func (p ServiceConfigPatch) apply(cfg pricing.ServiceConfig) pricing.ServiceConfig {
	cfg = copyConfig(cfg)
	if p.Capabilities != nil {
		cfg.Capabilities = uniq(*p.Capabilities)
	}
	if p.ServiceLevel != nil {
		cfg.ServiceLevel = *p.ServiceLevel
	}
	if p.Addons != nil {
		cfg.Addons = uniq(*p.Addons)
	}
	return cfg
}

type CommonPatch struct {
	Industry *string `json:"industry,omitempty"`
	Scale    *string `json:"scale,omitempty"`
}

func (p CommonPatch) apply(c pricing.CommonConfig) pricing.CommonConfig {
	if p.Industry != nil {
		c.Industry = *p.Industry
	}
	if p.Scale != nil {
		c.Scale = *p.Scale
	}
	return c
}

type PreferencesPatch struct {
	WantsVideo    *bool `json:"wantsVideo,omitempty"`
	ShowAllAddons *bool `json:"showAllAddons,omitempty"`
}

func (p PreferencesPatch) apply(prefs Preferences) Preferences {
	if p.WantsVideo != nil {
		prefs.WantsVideo = *p.WantsVideo
	}
	if p.ShowAllAddons != nil {
		prefs.ShowAllAddons = *p.ShowAllAddons
	}
	return prefs
}

// uniq keeps first occurrences in order.
func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
