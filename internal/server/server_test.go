package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/falcon/pkg/fortios"
)

const policySchema = `revisions:
  v6.0.0: true
  v7.0.0: true
children:
  policyid:
    type: integer
    revisions: {v6.0.0: true}
  days:
    type: list
    revisions: {v6.0.0: true}
    options:
      - {value: monday, revisions: {v6.0.0: true}}
  action:
    type: string
    revisions: {v6.0.0: true}
    options:
      - {value: accept, revisions: {v6.0.0: true}}
      - {value: deny, revisions: {v6.0.0: true}}
  ztna_tags:
    type: string
    revisions: {v7.0.0: true}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := fortios.NewRegistry()
	require.NoError(t, reg.Register(&fortios.Module{
		Name:      "fortios_firewall_policy",
		Path:      "firewall",
		Endpoint:  "policy",
		Parameter: "firewall_policy",
		MKey:      "policyid",
		Schema:    policySchema,
	}))
	require.NoError(t, reg.Register(&fortios.Module{
		Name:   "fortios_system_broken",
		Schema: "children: [",
	}))
	return New(Config{Registry: reg})
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"status": "ok", "modules": float64(2)}, decode(t, rec))
}

func TestListModules(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/modules", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Modules []ModuleInfo `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Modules, 2)
	assert.Equal(t, ModuleInfo{
		Name:      "fortios_firewall_policy",
		Path:      "firewall",
		Endpoint:  "policy",
		Parameter: "firewall_policy",
		MKey:      "policyid",
	}, body.Modules[0])
}

func TestSpec(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/v1/modules/fortios_firewall_policy/spec", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "fortios_firewall_policy", body["module"])

	spec := body["spec"].(map[string]any)
	assert.Equal(t, "dict", spec["type"])
	options := spec["options"].(map[string]any)
	assert.Equal(t, "int", options["policyid"].(map[string]any)["type"])
	assert.Equal(t, []any{"accept", "deny"}, options["action"].(map[string]any)["choices"])

	rec = do(t, s, http.MethodGet, "/v1/modules/fortios_nope/spec", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])

	rec = do(t, s, http.MethodGet, "/v1/modules/fortios_system_broken/spec", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestValidate(t *testing.T) {
	s := newTestServer(t)
	const path = "/v1/modules/fortios_firewall_policy/validate"

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantCode   string
		want       map[string]any
	}{
		{
			name:       "supported json",
			body:       `{"target": "v7.0.0", "params": {"policyid": 1, "ztna_tags": "x"}}`,
			wantStatus: http.StatusOK,
			want:       map[string]any{"matched": true, "system_version": "v7.0.0", "mismatches": []any{}},
		},
		{
			name:       "unsupported attribute yaml",
			body:       "target: v6.4.0\nparams:\n  policyid: 1\n  ztna_tags: x\n",
			wantStatus: http.StatusOK,
			want: map[string]any{
				"matched":        false,
				"system_version": "v6.4.0",
				"mismatches":     []any{"option ztna_tags(x) not supported until in v7.0.0"},
			},
		},
		{
			name:       "raw hyphenated key",
			body:       `{"target": "v6.4.0", "params": {"ztna-tags": "x"}}`,
			wantStatus: http.StatusOK,
			want: map[string]any{
				"matched":        false,
				"system_version": "v6.4.0",
				"mismatches":     []any{"option ztna_tags(x) not supported until in v7.0.0"},
			},
		},
		{
			name:       "module too new",
			body:       `{"target": "v5.6.0", "params": {"policyid": 1}}`,
			wantStatus: http.StatusOK,
			want: map[string]any{
				"matched":        false,
				"system_version": "v5.6.0",
				"mismatches":     []any{"module fortios_firewall_policy not supported until in v6.0.0"},
			},
		},
		{
			name:       "target from query",
			target:     "?target=v7.0.0",
			body:       `{"params": {"action": "deny"}}`,
			wantStatus: http.StatusOK,
			want:       map[string]any{"matched": true, "system_version": "v7.0.0", "mismatches": []any{}},
		},
		{
			name:       "missing target",
			body:       `{"params": {}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "MISSING_TARGET",
		},
		{
			name:       "bad target",
			body:       `{"target": "seven", "params": {"policyid": 1}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_TARGET",
		},
		{
			name:       "unknown list option",
			body:       `{"target": "v7.0.0", "params": {"days": ["friday"]}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "MALFORMED_PARAMS",
		},
		{
			name:       "not an object",
			body:       `[1, 2]`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_BODY",
		},
		{
			name:       "not yaml",
			body:       "target: [",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_BODY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, path+tt.target, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decode(t, rec)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
				return
			}
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestValidate_UnknownModule(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/v1/modules/fortios_nope/validate", `{"target": "v7.0.0"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/v1/modules/fortios_firewall_policy/validate",
		`{"target": "v6.4.0", "params": {"ztna_tags": "x"}}`)
	do(t, s, http.MethodGet, "/healthz", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `falcon_validations_total{matched="false",module="fortios_firewall_policy"} 1`)
	assert.Contains(t, body, `falcon_http_requests_total{code="200",method="POST",route="/v1/modules/{module}/validate"} 1`)
	assert.Contains(t, body, `falcon_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
	assert.Contains(t, body, `falcon_http_request_duration_seconds_count{route="/healthz"} 1`)
}

func TestRun_Shutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", Registry: fortios.NewRegistry()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
}
