package handlers

import (
	"encoding/json"
	"net/http"
)

// Messages shared by several endpoints
const (
	MsgFieldRequired = "This field is required."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgInvalidJSON   = "JSON parse error."
	MsgInternal      = "A server error occurred."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail writes {"detail": msg}
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeMessage writes {"message": msg}
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeFieldErrors writes a 400 with per-field message lists
func writeFieldErrors(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusBadRequest, fields)
}

// decodeBody decodes the request body into v, answering 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	return true
}

// requireFields collects a required-field error for every blank value
func requireFields(values map[string]string) map[string][]string {
	var missing map[string][]string
	for name, value := range values {
		if value == "" {
			if missing == nil {
				missing = make(map[string][]string)
			}
			missing[name] = []string{MsgFieldRequired}
		}
	}
	return missing
}
