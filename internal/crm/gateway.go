package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Simplici0/quote-estimator/internal/catalog"
	"github.com/Simplici0/quote-estimator/internal/estimator"
	"github.com/Simplici0/quote-estimator/internal/pricing"
)

const fieldCacheTTL = 10 * time.Minute

// Sender is the part of Client the gateway needs.
type Sender interface {
	UpsertContact(ctx context.Context, req ContactRequest) (string, error)
	CreateOpportunity(ctx context.Context, req OpportunityRequest) (string, error)
	CustomFields(ctx context.Context) ([]CustomField, error)
}

// StageResolver finds the pipeline and stage an opportunity for key goes to.
// Empty ids mean no opportunity is created.
type StageResolver interface {
	ResolveStage(ctx context.Context, key string) (pipelineID, stageID string, err error)
}

// StaticStages resolves stages from fixed ids. Unknown keys fall back to the
// "setup" stage.
type StaticStages struct {
	PipelineID string
	ByKey      map[string]string
}

func (s StaticStages) ResolveStage(_ context.Context, key string) (string, string, error) {
	if s.PipelineID == "" {
		return "", "", nil
	}
	stage := s.ByKey[key]
	if stage == "" {
		stage = s.ByKey[defaultPipelineKey]
	}
	return s.PipelineID, stage, nil
}

// Submission is a value copy of everything the visitor submitted.
type Submission struct {
	Contact  Contact            `json:"contact"`
	Snapshot estimator.Snapshot `json:"state"`
	Quote    pricing.Quote      `json:"quote"`
}

type OpportunityResult struct {
	ID      string `json:"id,omitempty"`
	Created bool   `json:"created"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is what the wizard learns about a submission.
type Result struct {
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	ContactID   string             `json:"contactId,omitempty"`
	Opportunity *OpportunityResult `json:"opportunity,omitempty"`
}

type Gateway struct {
	cat    *catalog.Catalog
	sender Sender
	stages StageResolver
	fields *expirable.LRU[string, map[string]string]
	now    func() time.Time
}

func NewGateway(cat *catalog.Catalog, sender Sender, stages StageResolver) *Gateway {
	if stages == nil {
		stages = StaticStages{}
	}
	return &Gateway{
		cat:    cat,
		sender: sender,
		stages: stages,
		fields: expirable.NewLRU[string, map[string]string](1, nil, fieldCacheTTL),
		now:    time.Now,
	}
}

// FieldIDs returns the custom field ids by normalized key, cached for a few
// minutes.
func (g *Gateway) FieldIDs(ctx context.Context) (map[string]string, error) {
	const key = "fields"
	if ids, ok := g.fields.Get(key); ok {
		return ids, nil
	}
	fields, err := g.sender.CustomFields(ctx)
	if err != nil {
		return nil, err
	}
	ids := FieldIDs(fields)
	g.fields.Add(key, ids)
	return ids, nil
}

// ForgetFields drops the cached field ids.
func (g *Gateway) ForgetFields() {
	g.fields.Purge()
}

// Prepare validates the contact and builds the payload. Field ids that cannot
// be resolved are sent under their bare keys.
func (g *Gateway) Prepare(ctx context.Context, sub Submission) (Payload, error) {
	if err := ValidateContact(sub.Contact); err != nil {
		return Payload{}, err
	}
	ids, err := g.FieldIDs(ctx)
	if err != nil {
		ids = map[string]string{}
	}
	return BuildPayload(g.cat, sub.Contact, sub.Snapshot, sub.Quote, ids, g.now())
}

// Send upserts the contact and, when a stage is configured for the payload's
// pipeline, opens an opportunity worth the quote's final total. A failed
// opportunity is reported but does not fail the submission.
func (g *Gateway) Send(ctx context.Context, p Payload) Result {
	contactID, err := g.sender.UpsertContact(ctx, p.ContactRequest())
	if err != nil {
		return Result{Error: err.Error()}
	}
	res := Result{Success: true, ContactID: contactID}

	pipelineID, stageID, err := g.stages.ResolveStage(ctx, p.PipelineKey)
	switch {
	case err != nil:
		res.Opportunity = &OpportunityResult{Error: fmt.Sprintf("resolve stage: %v", err)}
		return res
	case pipelineID == "":
		res.Opportunity = &OpportunityResult{Skipped: true, Reason: "no pipeline configured"}
		return res
	case stageID == "":
		res.Opportunity = &OpportunityResult{Skipped: true, Reason: fmt.Sprintf("no stage configured for %q", p.PipelineKey)}
		return res
	}

	oppID, err := g.sender.CreateOpportunity(ctx, OpportunityRequest{
		ContactID:       contactID,
		PipelineID:      pipelineID,
		PipelineStageID: stageID,
		Name:            p.Contact.Name(),
		MonetaryValue:   p.FinalTotal,
	})
	if err != nil {
		res.Opportunity = &OpportunityResult{Error: err.Error()}
		return res
	}
	res.Opportunity = &OpportunityResult{ID: oppID, Created: true}
	return res
}

// Submit prepares and sends in one step.
func (g *Gateway) Submit(ctx context.Context, sub Submission) Result {
	p, err := g.Prepare(ctx, sub)
	if err != nil {
		return Result{Error: err.Error()}
	}
	return g.Send(ctx, p)
}
