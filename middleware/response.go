package middleware

import (
	"encoding/json"
	"io"
	"net/http"
)

type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

func readBody(r *http.Request, maxBody int64) (request, error) {
	var req request
	if r.Body == nil {
		return req, nil
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return req, err
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return req, errBodyTooLarge
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

type messageBody struct {
	Message string `json:"message"`
}

type errorsBody struct {
	Errors any `json:"errors"`
}

type resultBody struct {
	Data   any   `json:"data"`
	Errors []any `json:"errors,omitempty"`
}

// translate maps an outcome onto a status code and response body.
func translate(out Outcome) (int, any) {
	switch out.Kind {
	case OutcomeSchemaInvalid, OutcomeDocumentInvalid:
		return http.StatusBadRequest, errorsBody{Errors: out.Errors}
	case OutcomeServerError:
		// only the message leaves the server
		return http.StatusInternalServerError, errorsBody{Errors: []messageBody{{Message: out.Err.Error()}}}
	default:
		return http.StatusOK, resultBody{Data: out.Data, Errors: out.FieldErrors}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) int {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
	return status
}
