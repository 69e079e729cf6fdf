package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidScenario is matched by every *ConfigError.
var ErrInvalidScenario = errors.New("invalid scenario configuration")

// ConfigError reports a structurally invalid scenario. It is fatal to the
// evaluation: no partial results are produced.
type ConfigError struct {
	Report *Report
}

func (e *ConfigError) Error() string {
	if e.Report == nil || len(e.Report.Errors) == 0 {
		return ErrInvalidScenario.Error()
	}
	msgs := make([]string, 0, len(e.Report.Errors))
	for _, r := range e.Report.Errors {
		msgs = append(msgs, r.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidScenario, strings.Join(msgs, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrInvalidScenario }

// NewConfigError builds a single-finding ConfigError.
func NewConfigError(level Level, path, message string) *ConfigError {
	r := NewReport()
	r.AddError(Result{Level: level, Path: path, Message: message})
	return &ConfigError{Report: r}
}
