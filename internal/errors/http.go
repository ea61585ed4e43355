package errors

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	jmespath "github.com/jmespath-community/go-jmespath"
)

const maxBodyMessageLen = 200

// Expressions tried in order to find a human readable message in an error body.
var detailExpressions = []string{"detail", "error", "message"}

// MapHTTPError maps a non-2xx backend response to an AppError:
// - 400 → Validation (server detail or "Données invalides"; Field set from the first field error)
// - 401 → Unauthenticated ("Session expirée")
// - 403 → Forbidden
// - 404 → NotFound (server detail or "Ressource introuvable")
// - anything else → Internal (raw text body, detail, error, first field error, else "Erreur serveur")
//
// It returns nil for 2xx statuses.
func MapHTTPError(status int, body []byte) *AppError {
	if status >= 200 && status < 300 {
		return nil
	}

	data, text := decodeBody(body)
	detail := searchDetail(data)
	field, fieldMsg := firstFieldError(data)

	switch status {
	case http.StatusBadRequest:
		msg := firstNonEmpty(detail, MsgInvalidData)
		return &AppError{Code: ErrCodeValidation, Message: msg, Field: field, Status: status}
	case http.StatusUnauthorized:
		return &AppError{Code: ErrCodeUnauthenticated, Message: MsgSessionExpired, Status: status}
	case http.StatusForbidden:
		return &AppError{Code: ErrCodeForbidden, Message: MsgForbidden, Status: status}
	case http.StatusNotFound:
		return &AppError{Code: ErrCodeNotFound, Message: firstNonEmpty(detail, MsgNotFound), Status: status}
	default:
		msg := firstNonEmpty(text, detail, fieldMsg, MsgServer)
		return &AppError{Code: ErrCodeInternal, Message: msg, Field: field, Status: status}
	}
}

// decodeBody returns the decoded JSON value, or the body as text when it is
// not JSON (or is a JSON string).
func decodeBody(body []byte) (any, string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, ""
	}
	var data any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return nil, truncate(trimmed)
	}
	if s, ok := data.(string); ok {
		return nil, truncate(s)
	}
	return data, ""
}

func searchDetail(data any) string {
	if _, ok := data.(map[string]any); !ok {
		return ""
	}
	for _, expr := range detailExpressions {
		v, err := jmespath.Search(expr, data)
		if err != nil {
			continue
		}
		if s := scalarMessage(v); s != "" {
			return s
		}
	}
	return ""
}

// firstFieldError returns the first field (in key order) of a field-error body
// and its first message.
func firstFieldError(data any) (string, string) {
	obj, ok := data.(map[string]any)
	if !ok || len(obj) == 0 {
		return "", ""
	}
	keys, err := jmespath.Search("sort(keys(@))", data)
	if err != nil {
		return "", ""
	}
	for _, name := range toStrings(keys) {
		switch name {
		case "detail", "error", "message", "code":
			continue
		}
		return name, scalarMessage(obj[name])
	}
	return "", ""
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// scalarMessage reads a string or the first string of a list.
func scalarMessage(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxBodyMessageLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxBodyMessageLen]) + "…"
}
