package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// JSON-RPC 2.0 error codes. The -32000 range carries container-specific
// failures so clients can branch without parsing messages.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603

	codeContainerNotFound = -32000
	codeContainerExists   = -32001
	codeInvalidState      = -32002
)

const jsonrpcVersion = "2.0"

// request is an incoming JSON-RPC 2.0 call
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// response is an outgoing JSON-RPC 2.0 reply. Exactly one of Result and
// Error is set.
type response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// rpcError is the error member of a JSON-RPC reply
type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func newResult(id, result interface{}) *response {
	return &response{JSONRPC: jsonrpcVersion, Result: result, ID: id}
}

func newError(id interface{}, code int, message string) *response {
	return &response{JSONRPC: jsonrpcVersion, Error: &rpcError{Code: code, Message: message}, ID: id}
}

// paramError marks a failure caused by the caller's parameters, mapped to
// -32602 instead of the internal error code.
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

func newParamError(format string, args ...interface{}) error {
	return &paramError{msg: fmt.Sprintf(format, args...)}
}

// errorReply translates a runtime error into a JSON-RPC error response.
// Domain errors map onto the container code range; anything unrecognized
// becomes a generic internal error so credentials and API internals from
// wrapped causes never reach the socket.
func errorReply(id interface{}, err error) *response {
	var pErr *paramError
	if errors.As(err, &pErr) {
		return newError(id, codeInvalidParams, pErr.msg)
	}

	var notFound *shared.NotFoundError
	if errors.As(err, &notFound) {
		return newError(id, codeContainerNotFound, notFound.Error())
	}

	var duplicate *shared.DuplicateError
	if errors.As(err, &duplicate) {
		return newError(id, codeContainerExists, duplicate.Error())
	}

	var invalidState *shared.InvalidStateError
	if errors.As(err, &invalidState) {
		return newError(id, codeInvalidState, invalidState.Error())
	}

	var assignment *shared.ShipAssignmentError
	if errors.As(err, &assignment) {
		return newError(id, codeInvalidState, assignment.Error())
	}

	return newError(id, codeInternalError, "internal error")
}
