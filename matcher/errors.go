package matcher

import (
	"github.com/jamhan/predictmarket/logging"
	"github.com/pkg/errors"
)

// PersistenceFailureError wraps any error returned by the persistence
// port. Per spec §4.4.6/§7, once this surfaces the in-memory book may be
// inconsistent with persistence; the caller must either retry the
// submission or reload the market's book from persistence
// (engine.Facade.Load) before trusting it again.
type PersistenceFailureError struct {
	cause error
}

func (e *PersistenceFailureError) Error() string {
	return "matcher: persistence write failed: " + e.cause.Error()
}

func (e *PersistenceFailureError) Unwrap() error { return e.cause }

// errPersistence wraps cause and logs it at error level: once this
// surfaces, the market's book may be inconsistent with persistence
// until it is reloaded.
func (m *Matcher) errPersistence(cause error) error {
	err := &PersistenceFailureError{cause: errors.WithStack(cause)}
	m.log.Error("persistence write failed during match", logging.Err(err))
	return err
}
