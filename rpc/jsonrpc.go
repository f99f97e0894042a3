package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

const version = "2.0"

// Reference: https://www.jsonrpc.org/specification#error_object
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Reference: https://github.com/solana-labs/solana/blob/v1.9.5/client/src/rpc_custom_error.rs
	CodeSendTransactionPreflightFailure = -32002
	CodeTransactionSignatureVerify      = -32003
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

func invalidParams(format string, args ...interface{}) *Error {
	return &Error{
		Code:    CodeInvalidParams,
		Message: fmt.Sprintf(format, args...),
	}
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func newResponse(id json.RawMessage) *response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}

	return &response{
		JSONRPC: version,
		ID:      id,
	}
}

func errorResponse(id json.RawMessage, err *Error) *response {
	resp := newResponse(id)
	resp.Error = err
	return resp
}

func (r *request) validate() *Error {
	if r.JSONRPC != version {
		return &Error{Code: CodeInvalidRequest, Message: "Invalid request: unsupported jsonrpc version"}
	}
	if r.Method == "" {
		return &Error{Code: CodeInvalidRequest, Message: "Invalid request: missing method"}
	}

	return nil
}

// params are the positional parameters of a request. A request carrying a
// single by-name object is treated as having that object as its only
// positional parameter.
type params []json.RawMessage

func parseParams(raw json.RawMessage) (params, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var p params
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case '{':
		return params{raw}, nil
	default:
		return nil, errors.New("params must be an array or an object")
	}
}

// decode decodes the parameter at i into v. Missing or null parameters leave
// v untouched.
func (p params) decode(i int, v interface{}) error {
	if i >= len(p) || bytes.Equal(bytes.TrimSpace(p[i]), []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(p[i], v); err != nil {
		return invalidParams("Invalid params: parameter %d: %v", i, err)
	}

	return nil
}

// require decodes the parameter at i into v, failing if it is missing.
func (p params) require(i int, v interface{}) error {
	if i >= len(p) {
		return invalidParams("Invalid params: missing parameter %d", i)
	}

	return p.decode(i, v)
}

// config decodes the configuration object at i, ignoring a positional
// commitment string some clients send instead.
func (p params) config(i int, v interface{}) error {
	if i >= len(p) {
		return nil
	}
	if raw := bytes.TrimSpace(p[i]); len(raw) > 0 && raw[0] == '"' {
		return nil
	}

	return p.decode(i, v)
}

// encoding returns the encoding at i, passed either positionally or within a
// config object.
func (p params) encoding(i int) (string, error) {
	if i >= len(p) {
		return "", nil
	}

	var config struct {
		Encoding string `json:"encoding"`
	}
	if raw := bytes.TrimSpace(p[i]); len(raw) > 0 && raw[0] == '"' {
		err := p.decode(i, &config.Encoding)
		return config.Encoding, err
	}

	err := p.decode(i, &config)
	return config.Encoding, err
}
