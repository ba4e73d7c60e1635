package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
)

// Invoker performs one call to a named backend function and returns the
// unwrapped data of the response envelope
type Invoker interface {
	Invoke(ctx context.Context, function string, body any) (json.RawMessage, error)
}

// FunctionsInvoker calls the content functions over HTTP
type FunctionsInvoker struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	// tokenFn returns the bearer token of the signed-in user; the anon key is used when nil or empty
	tokenFn func(ctx context.Context) string
}

// NewFunctionsInvoker creates an invoker for functions under baseURL
// (usually SUPABASE_URL + /functions/v1).
func NewFunctionsInvoker(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *FunctionsInvoker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &FunctionsInvoker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithToken sets the function used to look up the user's access token
func (i *FunctionsInvoker) WithToken(fn func(ctx context.Context) string) *FunctionsInvoker {
	i.tokenFn = fn
	return i
}

// Invoke posts body to the function and maps failures onto the domain error taxonomy
func (i *FunctionsInvoker) Invoke(ctx context.Context, function string, body any) (json.RawMessage, error) {
	action := actionOf(body)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewValidationError("body", "cannot encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/"+function, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	token := i.apiKey
	if i.tokenFn != nil {
		if t := i.tokenFn(ctx); t != "" {
			token = t
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", i.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, &domain.TimeoutError{Function: function, Action: action, Err: err}
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &domain.APIError{Function: function, Action: action, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.APIError{Function: function, Action: action, Status: resp.StatusCode, Err: err}
	}

	var env content.Envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= 400 {
				return nil, statusError(function, action, resp.StatusCode, "", strings.TrimSpace(string(raw)))
			}
			return nil, domain.NewValidationError("response", "%s returned malformed JSON: %v", function, err)
		}
	}

	if env.Error != nil || resp.StatusCode >= 400 {
		code, message := "", http.StatusText(resp.StatusCode)
		if env.Error != nil {
			code, message = env.Error.Code, env.Error.Message
		}
		i.logger.Debug("function returned error",
			"function", function,
			"action", action,
			"status", resp.StatusCode,
			"code", code,
		)
		return nil, statusError(function, action, resp.StatusCode, code, message)
	}

	return env.Data, nil
}

// statusError maps an error answer onto a domain error
func statusError(function, action string, status int, code, message string) error {
	switch {
	case code == content.CodeNotFound || status == http.StatusNotFound:
		return &domain.NotFoundError{Message: message}
	case code == content.CodeValidation || code == content.CodeBadRequest ||
		status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &domain.ValidationError{Message: message}
	case code == content.CodeConflict || status == http.StatusConflict:
		return &domain.ConflictError{Message: message}
	case code == content.CodeUnauthorized || status == http.StatusUnauthorized:
		return &domain.UnauthorizedError{Message: message}
	case code == content.CodeForbidden || status == http.StatusForbidden:
		return &domain.ForbiddenError{Message: message}
	}
	if status < 400 {
		// error payload with a success status, treat as a server failure
		status = http.StatusInternalServerError
	}
	return &domain.APIError{Function: function, Action: action, Status: status, Code: code, Message: message}
}

func actionOf(body any) string {
	if req, ok := body.(*content.Request); ok {
		return string(req.Action)
	}
	return ""
}
