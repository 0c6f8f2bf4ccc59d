package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess         = 0 // All conditions passed
	ExitConditionFailed = 1 // One or more FAIL conditions failed
	ExitError           = 2 // Configuration or runtime error
)

// ConditionFailureError indicates that the suite ran, but one or more checks
// failed a condition or could not run.
type ConditionFailureError struct {
	Message string
}

func (e *ConditionFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var failure *ConditionFailureError
	if errors.As(err, &failure) {
		return ExitConditionFailed
	}
	return ExitError
}
