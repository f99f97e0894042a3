package solana

import (
	"crypto/ed25519"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	programLogPrefix  = "Program log: "
	programDataPrefix = "Program data: "
	programPrefix     = "Program "

	// LogTruncated is emitted in place of any log entry once the log
	// collector's byte limit has been reached.
	LogTruncated = "Log truncated"
)

// InvokeLog returns the log line emitted when program is invoked at depth.
func InvokeLog(program ed25519.PublicKey, depth int) string {
	return fmt.Sprintf("Program %s invoke [%d]", base58.Encode(program), depth)
}

// SuccessLog returns the log line emitted when program returns successfully.
func SuccessLog(program ed25519.PublicKey) string {
	return fmt.Sprintf("Program %s success", base58.Encode(program))
}

// FailedLog returns the log line emitted when program returns an error.
func FailedLog(program ed25519.PublicKey, err error) string {
	return fmt.Sprintf("Program %s failed: %v", base58.Encode(program), err)
}

// ProgramLog returns the log line for a message logged by a program.
func ProgramLog(msg string) string {
	return programLogPrefix + msg
}

// Invocation is the parsed execution log of a single program invocation.
type Invocation struct {
	Program  ed25519.PublicKey
	Depth    int
	Messages []string
	Success  bool
	// Failure is the error text of a failed invocation.
	Failure string
}

// ParseProgramLogs groups a transaction's execution log by program
// invocation, in invocation order. Messages logged by a program are
// attributed to the innermost invocation in progress.
func ParseProgramLogs(logs []string) ([]*Invocation, error) {
	var invocations []*Invocation
	var stack []*Invocation

	for i, l := range logs {
		switch {
		case strings.HasPrefix(l, programLogPrefix):
			if len(stack) == 0 {
				return nil, errors.Errorf("log %d emitted outside of an invocation", i)
			}

			top := stack[len(stack)-1]
			top.Messages = append(top.Messages, strings.TrimPrefix(l, programLogPrefix))
		case strings.HasPrefix(l, programDataPrefix):
			// Binary event data is not attributed to messages.
		case strings.HasPrefix(l, programPrefix):
			fields := strings.SplitN(strings.TrimPrefix(l, programPrefix), " ", 2)
			if len(fields) != 2 {
				continue
			}

			program, err := base58.Decode(fields[0])
			if err != nil || len(program) != ed25519.PublicKeySize {
				// Runtime lines such as "Program return:" are not tied to an
				// invocation boundary.
				continue
			}

			switch {
			case strings.HasPrefix(fields[1], "invoke ["):
				depth, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(fields[1], "invoke ["), "]"))
				if err != nil {
					return nil, errors.Wrapf(err, "invalid invoke depth at log %d", i)
				}

				inv := &Invocation{Program: program, Depth: depth}
				invocations = append(invocations, inv)
				stack = append(stack, inv)
			case fields[1] == "success":
				top, err := pop(&stack, program, i)
				if err != nil {
					return nil, err
				}
				top.Success = true
			case strings.HasPrefix(fields[1], "failed: "):
				top, err := pop(&stack, program, i)
				if err != nil {
					return nil, err
				}
				top.Failure = strings.TrimPrefix(fields[1], "failed: ")
			}
		}
	}

	return invocations, nil
}

// MessagesFor returns every message logged by program across invocations.
func MessagesFor(invocations []*Invocation, program ed25519.PublicKey) []string {
	var msgs []string
	for _, inv := range invocations {
		if inv.Program.Equal(program) {
			msgs = append(msgs, inv.Messages...)
		}
	}

	return msgs
}

func pop(stack *[]*Invocation, program ed25519.PublicKey, index int) (*Invocation, error) {
	if len(*stack) == 0 {
		return nil, errors.Errorf("unmatched program result at log %d", index)
	}

	top := (*stack)[len(*stack)-1]
	if !top.Program.Equal(program) {
		return nil, errors.Errorf("program result at log %d does not match invocation of %s", index, base58.Encode(top.Program))
	}

	*stack = (*stack)[:len(*stack)-1]
	return top, nil
}
