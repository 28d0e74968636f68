package rendergraph

import (
	"errors"
	"fmt"

	"github.com/gogpu/rendergraph/resource"
)

// Pass building errors.
var (
	// ErrInvalidReference is returned when a handle given to a PassBuilder
	// no longer refers to a live resource.
	ErrInvalidReference = errors.New("rendergraph: invalid resource reference")

	// ErrInvalidArgument is returned for an empty pass name or a malformed
	// argument such as more than one clear value.
	ErrInvalidArgument = errors.New("rendergraph: invalid argument")

	// ErrInvalidExtent is returned when a pass has no attachment to derive
	// its extent from, or the derived extent has a zero dimension.
	ErrInvalidExtent = errors.New("rendergraph: invalid extent")
)

// ExtentMismatchError is returned by PassBuilder.Build when an attachment's
// extent differs from the extent derived for the pass, and by pass
// compilation when an attachment was resized after Build.
type ExtentMismatchError struct {
	Pass       string
	Attachment string
	Want       resource.Extent
	Got        resource.Extent
}

func (e *ExtentMismatchError) Error() string {
	return fmt.Sprintf("rendergraph: pass %q: attachment %q is %s, pass extent is %s",
		e.Pass, e.Attachment, e.Got, e.Want)
}

// Unwrap makes errors.Is(err, ErrInvalidExtent) true.
func (e *ExtentMismatchError) Unwrap() error { return ErrInvalidExtent }
