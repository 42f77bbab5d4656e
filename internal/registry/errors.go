package registry

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/typecache/internal/navigation"
	"github.com/conduit-lang/typecache/internal/rules"
)

var (
	// ErrNotFound is matched when a type has no descriptor
	ErrNotFound = errors.New("type not registered")
	// ErrWrongCategory is matched when a descriptor exists but is not of
	// the requested kind
	ErrWrongCategory = errors.New("descriptor has a different category")
	// ErrNotReady is returned by navigation access before the navigation
	// phase
	ErrNotReady = errors.New("registry is not ready for navigation")
	// ErrUnresolved is matched by every UnresolvedError
	ErrUnresolved = errors.New("unresolved reference")

	// Re-exported so callers of this package need not import the others
	ErrNoCategory = rules.ErrNoCategory
	ErrAmbiguous  = rules.ErrAmbiguous
	ErrSetup      = rules.ErrSetup
	ErrCycle      = navigation.ErrCycle
)

// LookupError reports a failed Get
type LookupError struct {
	ID     string
	Want   string
	Got    string // category of the descriptor found, if any
	Reason error
}

func (e *LookupError) Error() string {
	if errors.Is(e.Reason, ErrWrongCategory) {
		return fmt.Sprintf("type %s is a %s descriptor, not %s", e.ID, e.Got, e.Want)
	}
	return fmt.Sprintf("type %s is not registered (looking for %s)", e.ID, e.Want)
}

func (e *LookupError) Unwrap() error {
	return e.Reason
}
