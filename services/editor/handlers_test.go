package editor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"automation-builder/api/services/catalog"
)

func newTestRouter(t *testing.T, f *fixture) *mux.Router {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	r := mux.NewRouter()
	NewHandler(f.manager, c).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestListTemplates(t *testing.T) {
	r := newTestRouter(t, newFixture(t, nil))

	rec := do(t, r, http.MethodGet, "/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	groups := decode[[]catalog.Group](t, rec)
	require.NotEmpty(t, groups)
	for _, g := range groups {
		require.NotEmpty(t, g.Templates)
	}
}

func TestEditorFlow(t *testing.T) {
	f := newFixture(t, nil)
	r := newTestRouter(t, f)

	rec := do(t, r, http.MethodPost, "/editor/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[View](t, rec).ID
	base := "/editor/sessions/" + id

	events, err := json.Marshal(eventsRequest{Events: emailEvents()})
	require.NoError(t, err)
	rec = do(t, r, http.MethodPost, base+"/events", string(events))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[eventsResponse](t, rec)
	require.Len(t, res.Results, 4)
	require.Len(t, res.Session.Nodes, 2)
	email := res.Session.Nodes[1].ID

	rec = do(t, r, http.MethodGet, base+"/inspector", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"inspector":null}`, rec.Body.String())

	rec = do(t, r, http.MethodPost, base+"/events", `{"events":[{"type":"click_node","nodeId":"`+email+`"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPatch, base+"/inspector", `{"fields":{"subject":"Hi"},"description":"First touch"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[View](t, rec)
	require.Equal(t, "First touch", v.Inspector.Description)

	rec = do(t, r, http.MethodPost, base+"/save", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.persister.On("Persist", mock.Anything, mock.Anything).Return("auto-1", nil).Once()
	rec = do(t, r, http.MethodPost, base+"/save", `{"name":"Welcome"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"auto-1","trigger":"webhook","steps":2}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, base, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditorErrors(t *testing.T) {
	f := newFixture(t, fakeLoader{})
	r := newTestRouter(t, f)

	rec := do(t, r, http.MethodPost, "/editor/sessions", `{"automationId":"missing"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/editor/sessions", `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/editor/sessions/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"editor session not found"}`, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/editor/sessions", "")
	id := decode[View](t, rec).ID

	rec = do(t, r, http.MethodPost, "/editor/sessions/"+id+"/save", `{"name":"Empty"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"add at least one step before saving"}`, rec.Body.String())

	rec = do(t, r, http.MethodPatch, "/editor/sessions/"+id+"/inspector", `{"label":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodDelete, "/editor/sessions/"+id, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNonFiniteNumberKeepsSessionReadable(t *testing.T) {
	f := newFixture(t, nil)
	r := newTestRouter(t, f)

	rec := do(t, r, http.MethodPost, "/editor/sessions", "")
	id := decode[View](t, rec).ID
	base := "/editor/sessions/" + id

	rec = do(t, r, http.MethodPost, base+"/events",
		`{"events":[{"type":"pick_template","templateId":"http-request"},{"type":"drop","x":10,"y":10}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	node := decode[eventsResponse](t, rec).Session.Nodes[0].ID

	rec = do(t, r, http.MethodPost, base+"/events", `{"events":[{"type":"click_node","nodeId":"`+node+`"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		rec = do(t, r, http.MethodPatch, base+"/inspector", `{"fields":{"timeoutSeconds":"`+raw+`"}}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, raw)
	}

	rec = do(t, r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[View](t, rec)
	require.Equal(t, 30.0, v.Nodes[0].Data.Config["timeoutSeconds"])
}
