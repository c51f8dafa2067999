package content

import (
	"errors"
	"fmt"
)

// ErrDurability marks a mutation that applied in memory but could not be
// written through to the persistence adapter. Callers should treat it as a
// warning, not a failure: the in-memory state remains authoritative until the
// next restart-reload, which would lose the unwritten change.
var ErrDurability = errors.New("durability warning: state not persisted")

// ValidationError reports a missing required field. The operation aborts
// before mutating any state.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}

// IsDurabilityWarning reports whether err is a durability warning and the
// mutation itself succeeded.
func IsDurabilityWarning(err error) bool {
	return errors.Is(err, ErrDurability)
}
