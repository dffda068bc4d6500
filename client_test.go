package coordinate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPNodeClientSuccess(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"groupId":"g1"}`))
	}))
	defer srv.Close()

	c := NewHTTPNodeClient(srv.URL, time.Second)
	payload, err := c.Call(context.Background(), ActionSpec{
		Verb:     VerbCreate,
		Resource: "v1/group",
		Payload:  json.RawMessage(`{"groupId":"g1"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1/group/", gotPath)
	assert.JSONEq(t, `{"groupId":"g1"}`, gotBody)
	assert.JSONEq(t, `{"groupId":"g1"}`, string(payload))
}

func TestHTTPNodeClientDeleteMethod(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPNodeClient(srv.URL, time.Second)
	_, err := c.Call(context.Background(), deleteAction())
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestHTTPNodeClientServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPNodeClient(srv.URL, time.Second)
	_, err := c.Call(context.Background(), createAction())
	require.Error(t, err)
	assert.Equal(t, OutcomeTransient, ClassifyError(err))
}

func TestHTTPNodeClientConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	c := NewHTTPNodeClient(srv.URL, time.Second)
	_, err := c.Call(context.Background(), createAction())
	require.Error(t, err)
	assert.Equal(t, OutcomeTransient, ClassifyError(err))
}

func TestHTTPNodeClientCreateConflictIsAlreadyApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTPNodeClient(srv.URL, time.Second)
	_, err := c.Call(context.Background(), createAction())
	require.Error(t, err)
	assert.Equal(t, OutcomePermanent, ClassifyError(err))

	r := errResult("n1", err)
	assert.True(t, r.AlreadyApplied())
}

func TestHTTPNodeClientDeleteNotFoundIsAlreadyApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPNodeClient(srv.URL, time.Second)
	_, err := c.Call(context.Background(), deleteAction())
	require.Error(t, err)

	r := errResult("n1", err)
	assert.Equal(t, OutcomePermanent, r.Outcome)
	assert.True(t, r.AlreadyApplied())
}

func TestHTTPNodeClientOtherClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewHTTPNodeClient(srv.URL, time.Second)
	_, err := c.Call(context.Background(), createAction())
	require.Error(t, err)
	assert.Equal(t, OutcomePermanent, ClassifyError(err))

	r := errResult("n1", err)
	assert.False(t, r.AlreadyApplied())
}

func TestHTTPNodeClientTimeoutIsTransient(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewHTTPNodeClient(srv.URL, 50*time.Millisecond)
	_, err := c.Call(context.Background(), createAction())
	require.Error(t, err)
	assert.Equal(t, OutcomeTransient, ClassifyError(err))
}

func TestClassifyErrorUnwrapped(t *testing.T) {
	// An unclassified error defaults to transient rather than triggering
	// compensation.
	assert.Equal(t, OutcomeTransient, ClassifyError(context.DeadlineExceeded))
}
