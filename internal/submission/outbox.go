package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/Simplici0/quote-estimator/internal/crm"
)

// Sender delivers a payload to the CRM.
type Sender interface {
	Send(ctx context.Context, p crm.Payload) crm.Result
}

// pendingStaleAfter is how long a pending submission may sit before a retry
// treats its send as lost.
const pendingStaleAfter = 10 * time.Minute

// Outbox stores a submission before sending it and records the outcome.
type Outbox struct {
	store      *Store
	sender     Sender
	staleAfter time.Duration
}

func NewOutbox(store *Store, sender Sender) *Outbox {
	return &Outbox{store: store, sender: sender, staleAfter: pendingStaleAfter}
}

// Send records p, sends it, and returns the stored record with the CRM
// result. The error is non-nil only when the record could not be stored; a
// CRM failure is reported in the result and leaves the record failed.
func (o *Outbox) Send(ctx context.Context, p crm.Payload) (Record, crm.Result, error) {
	rec, err := o.store.Create(ctx, p)
	if err != nil {
		return Record{}, crm.Result{}, err
	}
	res, err := o.deliver(ctx, rec)
	if err != nil {
		return rec, res, err
	}
	rec, err = o.store.Get(context.WithoutCancel(ctx), rec.ID)
	return rec, res, err
}

// deliver sends rec and records the outcome. The outcome is written even when
// ctx was cancelled during the send, so the record never stays pending.
func (o *Outbox) deliver(ctx context.Context, rec Record) (crm.Result, error) {
	res := o.sender.Send(ctx, rec.Payload)
	ctx = context.WithoutCancel(ctx)
	if !res.Success {
		if err := o.store.MarkFailed(ctx, rec.ID, res.Error); err != nil {
			return res, fmt.Errorf("mark submission failed: %w", err)
		}
		return res, nil
	}

	var oppID string
	if res.Opportunity != nil {
		oppID = res.Opportunity.ID
	}
	if err := o.store.MarkSent(ctx, rec.ID, res.ContactID, oppID); err != nil {
		return res, fmt.Errorf("mark submission sent: %w", err)
	}
	return res, nil
}

type RetryStats struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// RetryFailed resends every failed submission once, oldest first, along with
// pending ones whose send was lost. Each record is claimed before it is sent,
// so concurrent retries never send the same record twice.
func (o *Outbox) RetryFailed(ctx context.Context) (RetryStats, error) {
	retryable, err := o.store.ListRetryable(ctx, o.store.now().Add(-o.staleAfter), 0)
	if err != nil {
		return RetryStats{}, err
	}

	stats := RetryStats{}
	for _, rec := range retryable {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		claimed, err := o.store.Claim(ctx, rec)
		if err != nil {
			return stats, err
		}
		if !claimed {
			continue
		}
		stats.Attempted++
		res, err := o.deliver(ctx, rec)
		if err != nil {
			return stats, err
		}
		if res.Success {
			stats.Sent++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}
