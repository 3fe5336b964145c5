package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// readInput accepts either a form post or a flat JSON object, which is
// what the checkout scripts send.
func readInput(r *http.Request) (url.Values, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.Form, nil
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	vals := make(url.Values, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case string:
			vals.Set(k, t)
		case float64, bool:
			vals.Set(k, fmt.Sprint(t))
		}
	}
	return vals, nil
}

func field(vals url.Values, name string) string {
	return strings.TrimSpace(vals.Get(name))
}
