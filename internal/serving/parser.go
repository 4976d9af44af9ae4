package serving

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// parseResponse decodes an invocation body. Accepted shapes:
//
//	"text"                                  -> Text
//	{"choices":[{"message":{...}}]}         -> Structured(message)
//	{"messages":[..., {...}]}               -> Structured(last message)
//	{"predictions":["text" | {...}]}        -> Text or Structured
//	{...}                                   -> Structured
func parseResponse(body []byte) (Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return fromJSON(raw)
}

func fromJSON(raw any) (Response, error) {
	switch v := raw.(type) {
	case string:
		return Text(v), nil
	case map[string]any:
		return fromObject(v)
	default:
		return nil, fmt.Errorf("%w: unexpected %s", ErrMalformedResponse, jsonKind(raw))
	}
}

func fromObject(obj map[string]any) (Response, error) {
	if choices, ok := obj["choices"]; ok {
		first, err := firstElement(choices, "choices")
		if err != nil {
			return nil, err
		}
		choice, ok := first.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: choice is %s", ErrMalformedResponse, jsonKind(first))
		}
		message, ok := choice["message"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: choice has no message", ErrMalformedResponse)
		}
		return Structured(message), nil
	}

	if messages, ok := obj["messages"].([]any); ok && len(messages) > 0 {
		last, ok := messages[len(messages)-1].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: last message is %s", ErrMalformedResponse, jsonKind(messages[len(messages)-1]))
		}
		return Structured(last), nil
	}

	if predictions, ok := obj["predictions"]; ok {
		first, err := firstElement(predictions, "predictions")
		if err != nil {
			return nil, err
		}
		return fromJSON(first)
	}

	return Structured(obj), nil
}

func firstElement(v any, field string) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrMalformedResponse, field, jsonKind(v))
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedResponse, field)
	}
	return list[0], nil
}

// parseErrorBody extracts the endpoint's error report from a non-2xx body.
func parseErrorBody(statusCode int, body []byte) *EndpointError {
	epErr := &EndpointError{StatusCode: statusCode}

	var payload struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
		Error     any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		epErr.Code = payload.ErrorCode
		epErr.Message = payload.Message
		if epErr.Message == "" {
			switch e := payload.Error.(type) {
			case string:
				epErr.Message = e
			case map[string]any:
				if msg, ok := e["message"].(string); ok {
					epErr.Message = msg
				}
			}
		}
	}

	if epErr.Message == "" {
		epErr.Message = truncate(strings.TrimSpace(string(body)), maxErrorBody)
	}
	return epErr
}

const maxErrorBody = 512

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
