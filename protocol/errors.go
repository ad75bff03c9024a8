package protocol

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNoPath           ErrorCode = "NO_PATH"
	CodeUnknownNode      ErrorCode = "UNKNOWN_NODE"
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeTimeout          ErrorCode = "TIMEOUT"
	CodeUnknownTopology  ErrorCode = "UNKNOWN_TOPOLOGY"
	CodeUnknownAlgorithm ErrorCode = "UNKNOWN_ALGORITHM"
	CodeInternal         ErrorCode = "INTERNAL"
)

// RemoteError is an error reported by the route server
type RemoteError struct {
	Code    ErrorCode
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code carried by err, or "" if err is not a RemoteError
func CodeOf(err error) ErrorCode {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
