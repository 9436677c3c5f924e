package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bluesky-social/chatmod/automod/engine"
	"github.com/bluesky-social/chatmod/automod/rules"
	"github.com/bluesky-social/chatmod/automod/setstore"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer() *Server {
	eng := engine.EngineTestFixture()
	eng.Rules = rules.DefaultRules()
	return newServer(eng, slog.Default(), ":0")
}

func doJSON(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	assert := assert.New(t)
	srv := testServer()

	rec := doJSON(srv, http.MethodGet, "/_health", "")
	assert.Equal(http.StatusOK, rec.Code)
	var st GenericStatus
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal("ok", st.Status)
}

func TestMessageEventEndpoint(t *testing.T) {
	assert := assert.New(t)
	srv := testServer()
	enf := srv.engine.TestEnforcer()

	rec := doJSON(srv, http.MethodPost, "/v1/events/message", `{"chat": -100, "user": 42, "text": "my pronouns are she/her"}`)
	assert.Equal(http.StatusAccepted, rec.Code)
	srv.inflight.Wait()

	warns := enf.CallsTo("warn")
	require.Equal(t, 1, len(warns))
	assert.Equal(int64(42), warns[0].UserID)
	assert.Equal(int64(-100), warns[0].ChatID)

	rec = doJSON(srv, http.MethodPost, "/v1/events/message", `{"chat": -100, "text": "hello"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/v1/events/message", `{"chat": -100, "user": "abc"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestJoinEventEndpoint(t *testing.T) {
	assert := assert.New(t)
	srv := testServer()
	enf := srv.engine.TestEnforcer()

	rec := doJSON(srv, http.MethodPost, "/v1/events/join", `{"chat": -100, "user": 43, "nameParts": ["princess_x", "", ""], "time": "2024-03-01T12:00:00Z"}`)
	assert.Equal(http.StatusAccepted, rec.Code)
	srv.inflight.Wait()

	assert.Equal(1, len(enf.Notices()))
	n, err := srv.engine.Pending.Count(context.Background())
	assert.NoError(err)
	assert.Equal(1, n)

	rec = doJSON(srv, http.MethodPost, "/v1/events/join", `{"chat": -100}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestAdminCommandEndpoint(t *testing.T) {
	assert := assert.New(t)
	srv := testServer()

	rec := doJSON(srv, http.MethodPost, "/v1/admin/command", `{"chat": -100, "caller": 1, "text": "/whitelist 77"}`)
	assert.Equal(http.StatusOK, rec.Code)
	var out AdminResponse
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal("Whitelisted 77", out.Reply)

	rec = doJSON(srv, http.MethodPost, "/v1/admin/command", `{"chat": -100, "caller": 1, "name": "setpolicy", "args": ["tempban_seconds", "3600"]}`)
	assert.Equal(http.StatusOK, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/v1/admin/command", `{"chat": -100, "caller": 99, "text": "/status"}`)
	assert.Equal(http.StatusForbidden, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/v1/admin/command", `{"chat": -100, "caller": 1, "text": "/setpolicy tempban_seconds soon"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/v1/admin/command", `{"chat": -100, "caller": 1, "text": "/nope"}`)
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/v1/admin/command", `{"chat": -100, "caller": 1, "text": "not a command"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestLoadRolesJSON(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	sets := setstore.NewMemSetStore()

	assert.NoError(loadRolesJSON(ctx, sets, "testdata/roles.json"))
	ok, err := sets.InSet(ctx, engine.SetAdmins, "1001")
	assert.NoError(err)
	assert.True(ok)
	n, err := sets.Size(ctx, engine.SetWhitelist)
	assert.NoError(err)
	assert.Equal(2, n)

	assert.Error(loadRolesJSON(ctx, sets, "testdata/missing.json"))
}

func TestLedgerGauges(t *testing.T) {
	assert := assert.New(t)
	srv := testServer()
	ctx := context.Background()

	assert.NoError(srv.engine.Whitelist(ctx, 5))
	assert.NoError(srv.updateLedgerGauges(ctx))
	assert.Equal(float64(1), testutil.ToFloat64(ledgerSize.WithLabelValues("whitelist")))
	assert.Equal(float64(1), testutil.ToFloat64(ledgerSize.WithLabelValues("admins")))
}
