package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code int
	Err  error
}

// WriteError writes an error in the backend's shape, {"detail": ..., "code": ...},
// so browser code handles edge and backend failures alike.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	body := map[string]string{"detail": apperrors.UserMessage(p.Err)}
	if code := apperrors.GetCode(p.Err); code != "" {
		body["code"] = string(code)
	}
	WriteJSON(w, p.Code, body)
}
