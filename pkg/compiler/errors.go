package compiler

import (
	"errors"
	"fmt"

	"github.com/dukex/flowedit/pkg/models"
)

// TriggerStep is the CompileError.Step value for problems with the intent
// itself or its trigger.
const TriggerStep = -1

var (
	ErrNilIntent = errors.New("intent cannot be nil")

	// ErrUnknownConditionRef indicates a step refers to a condition that is not an earlier step.
	ErrUnknownConditionRef = errors.New("condition reference does not name an earlier step")

	// ErrNotDecision indicates a condition reference points at a non-decision step.
	ErrNotDecision = errors.New("condition reference must name a decision step")

	ErrInvalidBranch = errors.New("branch must be \"true\" or \"false\"")

	// ErrBranchWithoutCondition indicates a branch was given without a condition reference.
	ErrBranchWithoutCondition = errors.New("branch requires a condition reference")

	ErrDuplicateRef = errors.New("step reference is used more than once")
)

// CompileError reports which part of an intent could not be compiled.
type CompileError struct {
	Step int             // Step index, or TriggerStep
	Ref  string          // Step or condition reference involved, if any
	Type models.NodeType // Offending node type, if any
	Err  error           // Underlying error
}

func (e *CompileError) Error() string {
	where := "trigger"
	if e.Step != TriggerStep {
		where = fmt.Sprintf("step %d", e.Step)
	}

	switch {
	case e.Type != "" && e.Ref != "":
		return fmt.Sprintf("compile %s (%s, ref %q): %v", where, e.Type, e.Ref, e.Err)
	case e.Type != "":
		return fmt.Sprintf("compile %s (%s): %v", where, e.Type, e.Err)
	case e.Ref != "":
		return fmt.Sprintf("compile %s (ref %q): %v", where, e.Ref, e.Err)
	}

	return fmt.Sprintf("compile %s: %v", where, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsCompileError checks if an error came from Compile.
func IsCompileError(err error) bool {
	var compileErr *CompileError

	return errors.As(err, &compileErr)
}
