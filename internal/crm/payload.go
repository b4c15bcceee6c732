package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Simplici0/quote-estimator/internal/catalog"
	"github.com/Simplici0/quote-estimator/internal/estimator"
	"github.com/Simplici0/quote-estimator/internal/pricing"
)

var (
	ErrInvalidEmail      = errors.New("valid email is required")
	ErrFirstNameRequired = errors.New("first name is required")
)

const (
	defaultPipelineKey   = "setup"
	defaultIndustryValue = "other"
	defaultBusinessScale = "solopreneur"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	submissionTags = []string{"service-estimator", "quote-request"}
)

// Contact is what the visitor types into the last wizard step.
type Contact struct {
	Email              string `json:"email"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Company            string `json:"company,omitempty"`
	ProjectDescription string `json:"projectDescription,omitempty"`
}

// Name is the display name used for opportunities, falling back to the email.
func (c Contact) Name() string {
	if n := strings.TrimSpace(c.FirstName + " " + c.LastName); n != "" {
		return n
	}
	return c.Email
}

// ValidateContact reports every problem with c joined into one error.
func ValidateContact(c Contact) error {
	var errs []error
	if !emailPattern.MatchString(strings.TrimSpace(c.Email)) {
		errs = append(errs, ErrInvalidEmail)
	}
	if strings.TrimSpace(c.FirstName) == "" {
		errs = append(errs, ErrFirstNameRequired)
	}
	return errors.Join(errs...)
}

// Payload is a submission ready to send. CustomField is keyed by field id when
// the id is known and by the bare field key otherwise.
type Payload struct {
	Contact     Contact        `json:"contact"`
	CustomField map[string]any `json:"customField"`
	Tags        []string       `json:"tags"`
	PipelineKey string         `json:"pipelineKey"`
	FinalTotal  float64        `json:"finalTotal"`
}

// ContactRequest converts the payload into the upsert body.
func (p Payload) ContactRequest() ContactRequest {
	return ContactRequest{
		Email:       p.Contact.Email,
		Phone:       p.Contact.Phone,
		FirstName:   p.Contact.FirstName,
		LastName:    p.Contact.LastName,
		CompanyName: p.Contact.Company,
		Tags:        append([]string{}, p.Tags...),
		CustomField: p.CustomField,
	}
}

type fullQuote struct {
	Contact          Contact                          `json:"contact"`
	SelectedServices []string                         `json:"selectedServices"`
	Configurations   map[string]pricing.ServiceConfig `json:"configurations"`
	Quote            pricing.Quote                    `json:"quote"`
	State            estimator.Snapshot               `json:"state"`
	Timestamp        string                           `json:"timestamp"`
}

// BuildPayload maps a contact, the estimator state and its quote onto the
// contact custom fields.
func BuildPayload(cat *catalog.Catalog, c Contact, snap estimator.Snapshot, q pricing.Quote, fieldIDs map[string]string, now time.Time) (Payload, error) {
	full, err := json.MarshalIndent(fullQuote{
		Contact:          c,
		SelectedServices: snap.SelectedServices,
		Configurations:   snap.ServiceConfigs,
		Quote:            q,
		State:            snap,
		Timestamp:        now.UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return Payload{}, fmt.Errorf("encode quote: %w", err)
	}

	video := "No"
	if snap.Preferences.WantsVideo {
		video = "Yes"
	}

	values := map[string]any{
		FieldSelectedServices:    strings.Join(snap.SelectedServices, ", "),
		FieldBusinessScale:       orDefault(snap.CommonConfig.Scale, defaultBusinessScale),
		FieldServiceLevel:        HighestServiceLevel(cat, snap),
		FieldIndustryType:        orDefault(snap.CommonConfig.Industry, defaultIndustryValue),
		FieldEstimatedInvestment: q.Subtotal,
		FieldBundleDiscount:      q.TotalDiscount,
		FieldFinalQuoteTotal:     q.FinalTotal,
		FieldProjectDescription:  c.ProjectDescription,
		FieldVideoWalkthrough:    video,
		FieldFullQuoteJSON:       string(full),
		FieldEstimateMin:         q.FinalRange.Min,
		FieldEstimateMax:         q.FinalRange.Max,
		FieldEstimateRange:       pricing.FormatRange(q.FinalRange, q.Currency),
	}

	custom := make(map[string]any, len(values))
	for key, v := range values {
		if id, ok := fieldIDs[key]; ok && id != "" {
			custom[id] = v
			continue
		}
		custom[key] = v
	}

	return Payload{
		Contact:     c,
		CustomField: custom,
		Tags:        append([]string{}, submissionTags...),
		PipelineKey: PipelineKey(cat, snap.SelectedServices),
		FinalTotal:  q.FinalTotal,
	}, nil
}

// HighestServiceLevel returns the highest-ranked level chosen for any selected
// service, or the catalog default when none is set.
func HighestServiceLevel(cat *catalog.Catalog, snap estimator.Snapshot) string {
	best := cat.DefaultServiceLevel
	for _, id := range snap.SelectedServices {
		level := snap.ServiceConfigs[id].ServiceLevel
		if level == "" {
			continue
		}
		if cat.LevelRank(level) > cat.LevelRank(best) {
			best = level
		}
	}
	return best
}

// PipelineKey picks the pipeline for a selection: the first key in the
// catalog's priority list that any selected service belongs to.
func PipelineKey(cat *catalog.Catalog, selected []string) string {
	keys := map[string]bool{}
	for _, id := range selected {
		if svc, ok := cat.Service(id); ok && svc.Pipeline != "" {
			keys[svc.Pipeline] = true
		}
	}
	for _, k := range cat.PipelinePriority {
		if keys[k] {
			return k
		}
	}
	return defaultPipelineKey
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
