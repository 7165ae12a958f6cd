package cmd

// Exit codes for the apictl CLI
const (
	// ExitSuccess indicates every test and request succeeded
	ExitSuccess = 0

	// ExitTestFailure indicates one or more tests or assertions failed
	ExitTestFailure = 1

	// ExitConfigError indicates the configuration could not be loaded or
	// referenced something that does not exist
	ExitConfigError = 3

	// ExitNetworkError indicates a request could not be delivered
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the exit code a failed command reports to the shell.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}
