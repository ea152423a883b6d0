package template

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNilCallback = errors.New("ErrNilCallback: callback must not be nil")
	ErrNoTable     = errors.New("ErrNoTable: no table specified")
	ErrNilMutation = errors.New("ErrNilMutation: mutation must not be nil")
)

// SystemError wraps every failure surfaced by the template: connection errors, store errors and errors returned
// by callbacks. The cause is reachable with errors.Is and errors.As.
type SystemError struct {
	Op    string
	Table string
	Err   error
}

func (e *SystemError) Error() string {
	if len(e.Table) == 0 {
		return fmt.Sprintf("hbasekit: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("hbasekit: %s on table %s: %v", e.Op, e.Table, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// wrapError wraps err in a SystemError unless it already is one.
func wrapError(op string, table string, err error) error {
	if err == nil {
		return nil
	}
	var sysErr *SystemError
	if errors.As(err, &sysErr) {
		return err
	}
	return &SystemError{Op: op, Table: table, Err: errors.WithStack(err)}
}
