package crm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("tok", "loc-1", WithBaseURL(srv.URL), WithRetry(time.Millisecond, 3))
}

func TestUpsertContactSendsAuthAndLocation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/contacts/upsert", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2021-07-28", r.Header.Get("Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "loc-1", body["locationId"])
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, []any{"service-estimator"}, body["tags"])

		_, _ = io.WriteString(w, `{"contact":{"id":"c-42"}}`)
	})

	id, err := c.UpsertContact(context.Background(), ContactRequest{
		Email: "ada@example.com",
		Tags:  []string{"service-estimator"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c-42", id)
}

func TestUpsertContactAcceptsOtherIDShapes(t *testing.T) {
	bodies := map[string]string{
		`{"contact":{"_id":"a"}}`: "a",
		`{"id":"b"}`:              "b",
		`{"_id":"c"}`:             "c",
	}
	for body, want := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		id, err := c.UpsertContact(context.Background(), ContactRequest{Email: "x@y.io"})
		require.NoError(t, err, body)
		assert.Equal(t, want, id, body)
	}
}

func TestUpsertContactWithoutIDFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"succeeded":true}`)
	})
	_, err := c.UpsertContact(context.Background(), ContactRequest{Email: "x@y.io"})
	assert.ErrorIs(t, err, ErrNoContactID)
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"contact":{"id":"c-1"}}`)
	})

	id, err := c.UpsertContact(context.Background(), ContactRequest{Email: "x@y.io"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRateLimitIsRetriedUntilExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"message":"slow down"}`)
	})

	_, err := c.UpsertContact(context.Background(), ContactRequest{Email: "x@y.io"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, int32(4), calls.Load(), "one attempt plus three retries")
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"bad email"}`)
	})

	_, err := c.UpsertContact(context.Background(), ContactRequest{Email: "x@y.io"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad email")
	assert.Equal(t, int32(1), calls.Load())
}

func TestMissingCredentialsNeverHitTheNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewClient("", "loc", WithBaseURL(srv.URL)).CustomFields(context.Background())
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewClient("tok", "", WithBaseURL(srv.URL)).Pipelines(context.Background())
	assert.ErrorIs(t, err, ErrMissingLocation)

	assert.Equal(t, int32(0), calls.Load())
}

func TestCreateOpportunity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/opportunities/", r.URL.Path)
		var body OpportunityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "loc-1", body.LocationID)
		assert.Equal(t, "open", body.Status)
		assert.Equal(t, 946.0, body.MonetaryValue)
		_, _ = io.WriteString(w, `{"opportunity":{"id":"o-7"}}`)
	})

	id, err := c.CreateOpportunity(context.Background(), OpportunityRequest{
		ContactID: "c-1", PipelineID: "p", PipelineStageID: "s", Name: "Ada", MonetaryValue: 946,
	})
	require.NoError(t, err)
	assert.Equal(t, "o-7", id)
}

func TestCustomFieldsNormalizesShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations/loc-1/customFields", r.URL.Path)
		_, _ = io.WriteString(w, `{"fields":[
			{"_id":"f1","name":"Min","key":"estimate_min","dataType":"MONETORY"},
			{"id":"f2","name":"Level","fieldKey":"contact.service_level","values":["a","b"]}
		]}`)
	})

	fields, err := c.CustomFields(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "f1", fields[0].ID)
	assert.Equal(t, "estimate_min", fields[0].Key)
	assert.Equal(t, "MONETORY", fields[0].Type)
	assert.Nil(t, fields[0].Options)
	assert.Equal(t, "contact.service_level", fields[1].Key)
	assert.JSONEq(t, `["a","b"]`, string(fields[1].Options))
}

func TestPipelinesPassesLocation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/opportunities/pipelines", r.URL.Path)
		assert.Equal(t, "loc-1", r.URL.Query().Get("locationId"))
		_, _ = io.WriteString(w, `{"pipelines":[{"id":"p1"}]}`)
	})

	raw, err := c.Pipelines(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"pipelines":[{"id":"p1"}]}`, string(raw))
}
