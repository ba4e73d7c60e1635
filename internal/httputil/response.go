package httputil

import (
	"encoding/json"
	"net/http"

	"aigym/internal/domain/models/content"
)

// RespondJSON writes a JSON response with the given status code.
// It handles encoding errors safely by marshaling first, preventing
// partial responses if encoding fails after headers are sent.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// RespondData writes a success envelope: {"data": ...}.
// Values already encoded as json.RawMessage are embedded as is.
func RespondData(w http.ResponseWriter, status int, data interface{}) {
	raw, ok := data.(json.RawMessage)
	if !ok {
		encoded, err := json.Marshal(data)
		if err != nil {
			RespondError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
		raw = encoded
	}
	RespondJSON(w, status, content.Envelope{Data: raw})
}

// RespondError writes an error envelope with the code matching status
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondErrorCode(w, status, CodeFromStatus(status), message)
}

// RespondErrorCode writes an error envelope: {"data": null, "error": {"code", "message"}}
func RespondErrorCode(w http.ResponseWriter, status int, code, message string) {
	envelope := content.Envelope{
		Data:  json.RawMessage("null"),
		Error: &content.ErrorBody{Code: code, Message: message},
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		// Fallback to plain text if JSON encoding fails
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// CodeFromStatus returns the envelope error code for a status code
func CodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return content.CodeBadRequest
	case http.StatusUnauthorized:
		return content.CodeUnauthorized
	case http.StatusForbidden:
		return content.CodeForbidden
	case http.StatusNotFound:
		return content.CodeNotFound
	case http.StatusConflict:
		return content.CodeConflict
	case http.StatusUnprocessableEntity:
		return content.CodeValidation
	default:
		return content.CodeInternal
	}
}
