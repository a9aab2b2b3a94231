package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/elnormous/contenttype"
)

var (
	htmlMediaType = contenttype.NewMediaType("text/html")
	jsonMediaType = contenttype.NewMediaType("application/json")
	// HTML first: a missing or wildcard Accept header means a browser navigation.
	negotiableMediaTypes = []contenttype.MediaType{htmlMediaType, jsonMediaType}
)

// errorBody is the only error shape the gateway ever sends.
type errorBody struct {
	Error string `json:"error"`
}

// PrefersJSON reports whether the Accept header ranks application/json above text/html.
func PrefersJSON(r *http.Request) bool {
	mt, _, err := contenttype.GetAcceptableMediaType(r, negotiableMediaTypes)
	if err != nil {
		return false
	}
	return mt.Matches(jsonMediaType)
}

// WriteJSONError writes {"error": code} with status.
func WriteJSONError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code})
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, location, http.StatusFound)
}
