package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/iota-uz/orgmatrix/pkg/composables"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	Meta       map[string]string `json:"meta,omitempty"`
	References any               `json:"references,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// RequestMeta carries the request id and path of r, when known.
func RequestMeta(r *http.Request) map[string]string {
	meta := map[string]string{"path": r.URL.Path}
	if requestID, ok := composables.UseRequestID(r.Context()); ok && requestID != "" {
		meta["request_id"] = requestID
	}
	return meta
}
