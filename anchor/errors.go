package anchor

import (
	"fmt"

	"github.com/rentchain/rentchain-go/solana"
)

// Error is an error with an Anchor error code. Programs return an Error to
// fail with its code, after the error is logged.
type Error struct {
	Code    solana.CustomError
	Name    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, int(e.Code), e.Message)
}

// Log returns the log message emitted when the error is returned.
func (e *Error) Log() string {
	return fmt.Sprintf("AnchorError occurred. Error Code: %s. Error Number: %d. Error Message: %s.", e.Name, int(e.Code), e.Message)
}

// NewError returns a program defined error. Program error codes start at
// ErrorCodeOffset.
func NewError(offset int, name, message string) *Error {
	return &Error{
		Code:    solana.CustomError(ErrorCodeOffset + offset),
		Name:    name,
		Message: message,
	}
}

// ErrorCodeOffset is the first code of program defined errors.
const ErrorCodeOffset = 6000

// Framework errors.
//
// Reference: https://github.com/coral-xyz/anchor/blob/v0.29.0/lang/src/error.rs
var (
	ErrInstructionMissing = &Error{
		Code:    100,
		Name:    "InstructionMissing",
		Message: "8 byte instruction identifier not provided",
	}
	ErrInstructionFallbackNotFound = &Error{
		Code:    101,
		Name:    "InstructionFallbackNotFound",
		Message: "Fallback functions are not supported",
	}
	ErrAccountNotEnoughKeys = &Error{
		Code:    3005,
		Name:    "AccountNotEnoughKeys",
		Message: "Not enough account keys given to the instruction",
	}
	ErrDeclaredProgramIDMismatch = &Error{
		Code:    4100,
		Name:    "DeclaredProgramIdMismatch",
		Message: "The declared program id does not match the actual program id",
	}
)
