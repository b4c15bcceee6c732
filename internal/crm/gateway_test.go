package crm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/quote-estimator/internal/catalog"
)

type fakeSender struct {
	contactErr  error
	oppErr      error
	fieldsErr   error
	fieldCalls  int
	contacts    []ContactRequest
	opportunity []OpportunityRequest
}

func (f *fakeSender) UpsertContact(_ context.Context, req ContactRequest) (string, error) {
	f.contacts = append(f.contacts, req)
	if f.contactErr != nil {
		return "", f.contactErr
	}
	return "c-1", nil
}

func (f *fakeSender) CreateOpportunity(_ context.Context, req OpportunityRequest) (string, error) {
	f.opportunity = append(f.opportunity, req)
	if f.oppErr != nil {
		return "", f.oppErr
	}
	return "o-1", nil
}

func (f *fakeSender) CustomFields(context.Context) ([]CustomField, error) {
	f.fieldCalls++
	if f.fieldsErr != nil {
		return nil, f.fieldsErr
	}
	return []CustomField{{ID: "fid-total", Key: "contact.final_quote_total"}}, nil
}

func sampleSubmission(t *testing.T, cat *catalog.Catalog) Submission {
	s := sampleState(t, cat)
	return Submission{
		Contact:  Contact{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
		Snapshot: s.Snapshot(),
		Quote:    s.Quote(),
	}
}

func TestSubmitCreatesContactAndOpportunity(t *testing.T) {
	cat := catalog.Default()
	sender := &fakeSender{}
	stages := StaticStages{PipelineID: "pipe", ByKey: map[string]string{"setup": "st-setup", "migration": "st-mig"}}
	g := NewGateway(cat, sender, stages)
	sub := sampleSubmission(t, cat)

	res := g.Submit(context.Background(), sub)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "c-1", res.ContactID)
	require.NotNil(t, res.Opportunity)
	assert.True(t, res.Opportunity.Created)
	assert.Equal(t, "o-1", res.Opportunity.ID)

	require.Len(t, sender.contacts, 1)
	assert.Equal(t, sub.Quote.FinalTotal, sender.contacts[0].CustomField["fid-total"])
	require.Len(t, sender.opportunity, 1)
	opp := sender.opportunity[0]
	assert.Equal(t, "pipe", opp.PipelineID)
	assert.Equal(t, "st-mig", opp.PipelineStageID)
	assert.Equal(t, "Ada Lovelace", opp.Name)
	assert.Equal(t, sub.Quote.FinalTotal, opp.MonetaryValue)
}

func TestSubmitRejectsInvalidContactWithoutSending(t *testing.T) {
	cat := catalog.Default()
	sender := &fakeSender{}
	g := NewGateway(cat, sender, nil)
	sub := sampleSubmission(t, cat)
	sub.Contact.Email = "nope"

	res := g.Submit(context.Background(), sub)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "valid email")
	assert.Empty(t, sender.contacts)
}

func TestContactFailureFailsTheSubmission(t *testing.T) {
	cat := catalog.Default()
	sender := &fakeSender{contactErr: &APIError{Status: 400, Body: "nope"}}
	g := NewGateway(cat, sender, StaticStages{PipelineID: "pipe", ByKey: map[string]string{"setup": "s"}})

	res := g.Submit(context.Background(), sampleSubmission(t, cat))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "status 400")
	assert.Empty(t, sender.opportunity)
}

func TestOpportunityFailureIsReportedNotFatal(t *testing.T) {
	cat := catalog.Default()
	sender := &fakeSender{oppErr: errors.New("stage missing")}
	g := NewGateway(cat, sender, StaticStages{PipelineID: "pipe", ByKey: map[string]string{"setup": "s"}})

	res := g.Submit(context.Background(), sampleSubmission(t, cat))
	require.True(t, res.Success)
	require.NotNil(t, res.Opportunity)
	assert.False(t, res.Opportunity.Created)
	assert.Equal(t, "stage missing", res.Opportunity.Error)
	// migration has no stage of its own so the setup stage is used.
	assert.Equal(t, "s", sender.opportunity[0].PipelineStageID)
}

func TestOpportunitySkippedWithoutPipeline(t *testing.T) {
	cat := catalog.Default()
	sender := &fakeSender{}
	g := NewGateway(cat, sender, nil)

	res := g.Submit(context.Background(), sampleSubmission(t, cat))
	require.True(t, res.Success)
	assert.True(t, res.Opportunity.Skipped)
	assert.Empty(t, sender.opportunity)

	g = NewGateway(cat, sender, StaticStages{PipelineID: "pipe"})
	res = g.Submit(context.Background(), sampleSubmission(t, cat))
	assert.True(t, res.Opportunity.Skipped)
	assert.Contains(t, res.Opportunity.Reason, "migration")
}

func TestFieldIDsAreCached(t *testing.T) {
	cat := catalog.Default()
	sender := &fakeSender{}
	g := NewGateway(cat, sender, nil)

	for i := 0; i < 3; i++ {
		ids, err := g.FieldIDs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fid-total", ids["final_quote_total"])
	}
	assert.Equal(t, 1, sender.fieldCalls)

	g.ForgetFields()
	_, err := g.FieldIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sender.fieldCalls)
}

func TestUnresolvedFieldsFallBackToKeys(t *testing.T) {
	cat := catalog.Default()
	sender := &fakeSender{fieldsErr: errors.New("down")}
	g := NewGateway(cat, sender, nil)

	p, err := g.Prepare(context.Background(), sampleSubmission(t, cat))
	require.NoError(t, err)
	assert.Contains(t, p.CustomField, FieldFinalQuoteTotal)
}
