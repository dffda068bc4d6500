package coordinate

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, clients map[NodeID]NodeClient) *Server {
	t.Helper()
	membership, registry := newTestCluster(t, clients)
	coord := New(membership, registry, WithRetryPolicy(fastPolicy(3)))
	return NewServer(coord, nil)
}

func postDTC(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/dtc/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerSucceeded(t *testing.T) {
	srv := newTestServer(t, map[NodeID]NodeClient{
		"n1": newFakeClient(replyOK()),
		"n2": newFakeClient(replyOK()),
	})

	rec := postDTC(t, srv, `{"groupId":"shard-1","action":"create"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp coordinateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "succeeded", resp.State)
	assert.Equal(t, 1, resp.Attempts)
	assert.NotEmpty(t, resp.TxnID)
}

func TestServerRolledBackIsConflict(t *testing.T) {
	srv := newTestServer(t, map[NodeID]NodeClient{
		"n1": newFakeClient(replyOK(), replyOK()),
		"n2": newFakeClient(replyPermanent()),
	})

	rec := postDTC(t, srv, `{"groupId":"shard-1","action":"create"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp coordinateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rolled_back", resp.State)
}

func TestServerFailedCarriesNodeDetail(t *testing.T) {
	// Compensation to n1 fails: the response must carry per-node outcomes
	// for operator follow-up.
	srv := newTestServer(t, map[NodeID]NodeClient{
		"n1": newFakeClient(replyOK(), replyTransient()),
		"n2": newFakeClient(replyPermanent()),
	})

	rec := postDTC(t, srv, `{"groupId":"shard-1","action":"create"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp coordinateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.State)
	assert.Contains(t, resp.Error, "compensation failed")
	require.Len(t, resp.Nodes, 2)
	require.Len(t, resp.Compensations, 1)
	assert.Equal(t, "n1", resp.Compensations[0].Node)
	assert.Equal(t, "transient", resp.Compensations[0].Outcome)
}

func TestServerRetryExhaustionIsFailed(t *testing.T) {
	srv := newTestServer(t, map[NodeID]NodeClient{
		"n1": newFakeClient(replyTransient()),
	})

	rec := postDTC(t, srv, `{"groupId":"shard-1","action":"create"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp coordinateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.State)
	assert.Contains(t, resp.Error, "retries exhausted")
	assert.Equal(t, 3, resp.Attempts)
}

func TestServerUnknownGroup(t *testing.T) {
	srv := newTestServer(t, map[NodeID]NodeClient{"n1": newFakeClient(replyOK())})

	rec := postDTC(t, srv, `{"groupId":"nope","action":"create"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerBadRequests(t *testing.T) {
	srv := newTestServer(t, map[NodeID]NodeClient{"n1": newFakeClient(replyOK())})

	rec := postDTC(t, srv, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postDTC(t, srv, `{"action":"create"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postDTC(t, srv, `{"groupId":"shard-1","action":"update"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/dtc/", nil)
	recGet := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recGet, req)
	assert.Equal(t, http.StatusMethodNotAllowed, recGet.Code)
}

func TestServerHealthz(t *testing.T) {
	srv := newTestServer(t, map[NodeID]NodeClient{"n1": newFakeClient(replyOK())})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerDefaultPayloadCarriesGroupID(t *testing.T) {
	var gotBody []byte
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer node.Close()

	membership := NewStaticMembership(map[GroupID]map[NodeID]string{
		"shard-1": {"n1": node.URL},
	})
	registry := NewClientRegistry()
	g, err := membership.Lookup("shard-1")
	require.NoError(t, err)
	registry.RegisterGroup(g, 0)

	srv := NewServer(New(membership, registry), nil)
	rec := postDTC(t, srv, `{"groupId":"shard-1","action":"create"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"groupId":"shard-1"}`, string(gotBody))
}
