package fortios

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request is one call to the device REST API
type Request struct {
	URL    string
	Method string
	Body   []byte            // JSON payload; nil for GET
	Params map[string]string // Extra query parameters
}

// Sender performs requests against a device. Implementations own the
// connection, authentication and retries.
type Sender interface {
	Send(ctx context.Context, req Request) (status int, body []byte, err error)
}

// SenderFunc adapts a function to the Sender interface
type SenderFunc func(ctx context.Context, req Request) (int, []byte, error)

// Send calls f
func (f SenderFunc) Send(ctx context.Context, req Request) (int, []byte, error) {
	return f(ctx, req)
}

// Response is a decoded device reply. "status" is always present.
type Response map[string]any

// Status returns the "status" field
func (r Response) Status() string {
	s, _ := r["status"].(string)
	return s
}

// HTTPStatus returns the "http_status" field, or 0
func (r Response) HTTPStatus() int {
	switch v := r["http_status"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Successful reports whether the device accepted the request. A DELETE of a
// missing object counts as success.
func (r Response) Successful() bool {
	if r.Status() == "success" || r.HTTPStatus() == http.StatusOK {
		return true
	}
	method, _ := r["http_method"].(string)
	return method == http.MethodDelete && r.HTTPStatus() == http.StatusNotFound
}

// Handler issues CMDB requests for one module
type Handler struct {
	sender   Sender
	mkeyName string
}

// NewHandler creates a handler. mkeyName is the endpoint's primary key
// attribute as sent on the wire; empty for singleton endpoints.
func NewHandler(sender Sender, mkeyName string) *Handler {
	return &Handler{sender: sender, mkeyName: mkeyName}
}

// CMDBURL builds a configuration endpoint URL
func CMDBURL(path, name, vdom string, mkey any) string {
	return buildURL("/api/v2/cmdb/", path, name, vdom, mkey)
}

// MonitorURL builds a monitor endpoint URL
func MonitorURL(path, name, vdom string, mkey any) string {
	return buildURL("/api/v2/monitor/", path, name, vdom, mkey)
}

func buildURL(prefix, path, name, vdom string, mkey any) string {
	u := prefix + path + "/" + name
	if !isBlank(mkey) {
		u += "/" + escapeKey(fmt.Sprint(mkey))
	}
	switch vdom {
	case "":
	case "global":
		u += "?global=1"
	default:
		u += "?vdom=" + vdom
	}
	return u
}

// escapeKey percent-encodes everything except unreserved characters, so a
// "/" inside a key cannot change the endpoint.
func escapeKey(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

// MKey returns the primary key value in data, or nil
func (h *Handler) MKey(data map[string]any) any {
	if h.mkeyName == "" {
		return nil
	}
	return data[h.mkeyName]
}

// Get reads an object or table
func (h *Handler) Get(ctx context.Context, path, name, vdom string, mkey any, params map[string]string) (Response, error) {
	return h.do(ctx, vdom, Request{
		URL:    CMDBURL(path, name, vdom, mkey),
		Method: http.MethodGet,
		Params: params,
	})
}

// Monitor reads a monitor endpoint
func (h *Handler) Monitor(ctx context.Context, path, name, vdom string, mkey any, params map[string]string) (Response, error) {
	return h.do(ctx, vdom, Request{
		URL:    MonitorURL(path, name, vdom, mkey),
		Method: http.MethodGet,
		Params: params,
	})
}

// Set updates an object with PUT, creating it with POST when the device
// reports it does not exist. Move requests are never retried.
func (h *Handler) Set(ctx context.Context, path, name string, data map[string]any, vdom string, params map[string]string) (Response, error) {
	mkey := h.MKey(data)

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s/%s payload: %w", path, name, err)
	}

	status, reply, err := h.sender.Send(ctx, Request{
		URL:    CMDBURL(path, name, vdom, mkey),
		Method: http.MethodPut,
		Body:   body,
		Params: params,
	})
	if err != nil {
		return nil, fmt.Errorf("PUT %s/%s: %w", path, name, err)
	}

	if params["action"] == "move" {
		return formatResponse(reply, vdom), nil
	}

	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusInternalServerError:
		return h.Post(ctx, path, name, data, vdom, mkey)
	}
	return formatResponse(reply, vdom), nil
}

// Post creates an object. A non-empty mkey is written into data.
func (h *Handler) Post(ctx context.Context, path, name string, data map[string]any, vdom string, mkey any) (Response, error) {
	if !isBlank(mkey) && h.mkeyName != "" {
		data[h.mkeyName] = mkey
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s/%s payload: %w", path, name, err)
	}

	return h.do(ctx, vdom, Request{
		URL:    CMDBURL(path, name, vdom, nil),
		Method: http.MethodPost,
		Body:   body,
	})
}

// Delete removes an object. When mkey is empty it is taken from data.
func (h *Handler) Delete(ctx context.Context, path, name, vdom string, mkey any, data map[string]any) (Response, error) {
	if isBlank(mkey) {
		mkey = h.MKey(data)
	}

	var body []byte
	if data != nil {
		var err error
		if body, err = json.Marshal(data); err != nil {
			return nil, fmt.Errorf("encoding %s/%s payload: %w", path, name, err)
		}
	}

	return h.do(ctx, vdom, Request{
		URL:    CMDBURL(path, name, vdom, mkey),
		Method: http.MethodDelete,
		Body:   body,
	})
}

func (h *Handler) do(ctx context.Context, vdom string, req Request) (Response, error) {
	_, reply, err := h.sender.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	return formatResponse(reply, vdom), nil
}

// formatResponse decodes a device reply. Global-scope replies arrive as a
// one-element list and are tagged with vdom "global".
func formatResponse(body []byte, vdom string) Response {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		decoded = map[string]any{"raw": string(body)}
	}

	if vdom == "global" {
		list, ok := decoded.([]any)
		if !ok || len(list) == 0 {
			list = []any{decoded}
		}
		resp := toResponse(list[0])
		resp["vdom"] = "global"
		return resp
	}
	return toResponse(decoded)
}

func toResponse(v any) Response {
	m, ok := v.(map[string]any)
	if !ok {
		m = map[string]any{"results": v}
	}
	if _, ok := m["status"]; !ok {
		m["status"] = "success"
	}
	return Response(m)
}
