package command

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode is the numeric outcome of a dispatched command. The values are
// part of the external protocol.
type ErrorCode int

const (
	Success            ErrorCode = 1
	Null               ErrorCode = 0
	InvalidCommand     ErrorCode = -1
	InvalidArgument    ErrorCode = -2
	VarDoesNotExist    ErrorCode = -3
	NotEnoughArguments ErrorCode = -4
	InvalidHandle      ErrorCode = -5
	NoCommandGiven     ErrorCode = -6
	ActorNotCreated    ErrorCode = -7
	ActorNotVisible    ErrorCode = -8
)

var codeMessages = map[ErrorCode]string{
	Success:            "Operation successful",
	Null:               "Return value is null",
	InvalidCommand:     "Invalid command",
	InvalidArgument:    "Invalid argument",
	VarDoesNotExist:    "Variable does not exist",
	NotEnoughArguments: "Not enough arguments were passed",
	InvalidHandle:      "Invalid window handle",
	NoCommandGiven:     "No command given",
	ActorNotCreated:    "Actor has not been created",
	ActorNotVisible:    "Actor is not visible",
}

// String returns the fixed diagnostic message for c.
func (c ErrorCode) String() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown error code %d", int(c))
}

// Name returns the identifier-style name of c, e.g. "VarDoesNotExist".
// Used by scenario files and JSON output.
func (c ErrorCode) Name() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Failed reports whether c is an error (negative) code.
func (c ErrorCode) Failed() bool {
	return c < 0
}

var codeNames = map[ErrorCode]string{
	Success:            "Success",
	Null:               "Null",
	InvalidCommand:     "InvalidCommand",
	InvalidArgument:    "InvalidArgument",
	VarDoesNotExist:    "VarDoesNotExist",
	NotEnoughArguments: "NotEnoughArguments",
	InvalidHandle:      "InvalidHandle",
	NoCommandGiven:     "NoCommandGiven",
	ActorNotCreated:    "ActorNotCreated",
	ActorNotVisible:    "ActorNotVisible",
}

// ParseCode accepts either a code name ("VarDoesNotExist", case-insensitive)
// or its number ("-3").
func ParseCode(s string) (ErrorCode, bool) {
	s = strings.TrimSpace(s)
	for c, name := range codeNames {
		if strings.EqualFold(name, s) {
			return c, true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	c := ErrorCode(n)
	if _, ok := codeNames[c]; !ok {
		return 0, false
	}
	return c, true
}
