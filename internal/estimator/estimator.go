// Package estimator holds the user's wizard selections and keeps a priced
// quote in sync with them.
//
// A Store is a single logical actor: it is not safe for concurrent use.
// Callers that share one across goroutines must serialize access.
package estimator

import (
	"github.com/Simplici0/quote-estimator/internal/catalog"
	"github.com/Simplici0/quote-estimator/internal/pricing"
)

const (
	StepServices = "services"
	StepScope    = "scope"
	StepDetails  = "details"
)

// Preferences are unpriced user choices.
type Preferences struct {
	WantsVideo    bool `json:"wantsVideo"`
	ShowAllAddons bool `json:"showAllAddons"`
}

// Snapshot is a deep copy of the store's inputs. It is safe to keep after
// the store changes.
type Snapshot struct {
	CurrentStep      string                           `json:"currentStep"`
	SelectedServices []string                         `json:"selectedServices"`
	ServiceConfigs   map[string]pricing.ServiceConfig `json:"serviceConfigs"`
	CommonConfig     pricing.CommonConfig             `json:"commonConfig"`
	Preferences      Preferences                      `json:"preferences"`
}

// Selection returns the pricing input described by the snapshot.
func (s Snapshot) Selection() pricing.Selection {
	return pricing.Selection{
		Services: s.SelectedServices,
		Configs:  s.ServiceConfigs,
		Common:   s.CommonConfig,
	}
}

// Listener is called after every mutation with the new state and quote.
type Listener func(Snapshot, pricing.Quote)

// Token identifies a subscription.
type Token uint64

type subscription struct {
	token Token
	fn    Listener
}

type Store struct {
	cat *catalog.Catalog

	step     string
	selected []string
	configs  map[string]pricing.ServiceConfig
	common   pricing.CommonConfig
	prefs    Preferences

	quote pricing.Quote

	subs      []subscription
	nextToken Token
}

// New returns an empty store at the first wizard step.
func New(cat *catalog.Catalog) *Store {
	s := &Store{cat: cat}
	s.clear()
	s.recompute()
	return s
}

func (s *Store) clear() {
	s.step = s.cat.FirstStep()
	if s.step == "" {
		s.step = StepServices
	}
	s.selected = []string{}
	s.configs = map[string]pricing.ServiceConfig{}
	s.common = pricing.CommonConfig{}
	s.prefs = Preferences{}
}

// Subscribe registers fn for change notifications.
func (s *Store) Subscribe(fn Listener) Token {
	s.nextToken++
	s.subs = append(s.subs, subscription{token: s.nextToken, fn: fn})
	return s.nextToken
}

// Unsubscribe removes a listener. Unknown tokens are ignored.
func (s *Store) Unsubscribe(t Token) {
	for i, sub := range s.subs {
		if sub.token == t {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *Store) recompute() {
	s.quote = pricing.PriceAll(s.cat, s.selection())
}

// changed recomputes the quote and notifies every listener before returning.
func (s *Store) changed() {
	s.recompute()
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	subs := append([]subscription(nil), s.subs...)
	for _, sub := range subs {
		sub.fn(snap, s.quote)
	}
}

func (s *Store) selection() pricing.Selection {
	return pricing.Selection{Services: s.selected, Configs: s.configs, Common: s.common}
}

func (s *Store) defaultConfig(serviceID string) pricing.ServiceConfig {
	return pricing.ServiceConfig{
		Capabilities: s.cat.DefaultCapabilities(serviceID),
		ServiceLevel: s.cat.DefaultServiceLevel,
		Addons:       []string{},
	}
}

func (s *Store) isSelected(serviceID string) bool {
	for _, id := range s.selected {
		if id == serviceID {
			return true
		}
	}
	return false
}

// ToggleService selects a service with default options, or deselects it and
// discards its options.
func (s *Store) ToggleService(serviceID string) {
	if s.isSelected(serviceID) {
		kept := make([]string, 0, len(s.selected))
		for _, id := range s.selected {
			if id != serviceID {
				kept = append(kept, id)
			}
		}
		s.selected = kept
		delete(s.configs, serviceID)
	} else {
		s.selected = append(s.selected, serviceID)
		s.configs[serviceID] = s.defaultConfig(serviceID)
	}
	s.changed()
}

// UpdateServiceConfig merges p into the service's options, creating default
// options first when none exist.
func (s *Store) UpdateServiceConfig(serviceID string, p ServiceConfigPatch) {
	cfg, ok := s.configs[serviceID]
	if !ok {
		cfg = s.defaultConfig(serviceID)
	}
	s.configs[serviceID] = p.apply(cfg)
	s.changed()
}

func (s *Store) UpdateCommonConfig(p CommonPatch) {
	s.common = p.apply(s.common)
	s.changed()
}

func (s *Store) UpdatePreferences(p PreferencesPatch) {
	s.prefs = p.apply(s.prefs)
	s.changed()
}

// SetStep moves to step without validation. It reports false, and leaves the
// step unchanged, when the catalog has no such step.
func (s *Store) SetStep(step string) bool {
	if s.cat.StepIndex(step) < 0 {
		return false
	}
	s.step = step
	s.changed()
	return true
}

// ValidateStep reports whether step's requirements are met.
func (s *Store) ValidateStep(step string) bool {
	switch step {
	case StepServices:
		return len(s.selected) > 0
	case StepScope:
		return s.common.Industry != "" && s.common.Scale != ""
	case StepDetails:
		for _, id := range s.selected {
			if s.configs[id].ServiceLevel == "" {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Next advances one step when the current step validates.
func (s *Store) Next() bool {
	i := s.cat.StepIndex(s.step)
	if i < 0 || i+1 >= len(s.cat.Steps) || !s.ValidateStep(s.step) {
		return false
	}
	return s.SetStep(s.cat.Steps[i+1].ID)
}

// Back moves one step back. It is never gated.
func (s *Store) Back() bool {
	i := s.cat.StepIndex(s.step)
	if i <= 0 {
		return false
	}
	return s.SetStep(s.cat.Steps[i-1].ID)
}

// Reset clears every selection and returns to the first step.
func (s *Store) Reset() {
	s.clear()
	s.changed()
}

func (s *Store) CurrentStep() string {
	return s.step
}

// Progress is the position of the current step as a percentage.
func (s *Store) Progress() float64 {
	n := len(s.cat.Steps)
	i := s.cat.StepIndex(s.step)
	if n < 2 || i < 0 {
		return 0
	}
	return float64(i) / float64(n-1) * 100
}

// Quote returns the quote computed after the last mutation.
func (s *Store) Quote() pricing.Quote {
	return s.quote
}

func (s *Store) ActiveBundles() []pricing.AppliedBundle {
	return s.quote.AppliedBundles
}

// Snapshot returns a deep copy of the current inputs.
func (s *Store) Snapshot() Snapshot {
	configs := make(map[string]pricing.ServiceConfig, len(s.configs))
	for id, cfg := range s.configs {
		configs[id] = copyConfig(cfg)
	}
	return Snapshot{
		CurrentStep:      s.step,
		SelectedServices: append([]string{}, s.selected...),
		ServiceConfigs:   configs,
		CommonConfig:     s.common,
		Preferences:      s.prefs,
	}
}

func copyConfig(cfg pricing.ServiceConfig) pricing.ServiceConfig {
	return pricing.ServiceConfig{
		Capabilities: append([]string{}, cfg.Capabilities...),
		ServiceLevel: cfg.ServiceLevel,
		Addons:       append([]string{}, cfg.Addons...),
	}
}
