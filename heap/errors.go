package heap

import "errors"

// ErrInvalidBecome is the recoverable error kind matching Become's false
// return: the two arrays differed in length or one held an immediate
// element. Become itself returns a bool, per spec; BecomeChecked wraps
// that bool in this sentinel for callers that would rather use
// errors.Is than branch on a bare false.
var ErrInvalidBecome = errors.New("heap: become requires equal-length arrays of non-immediate elements")

// The remaining error kinds are unrecoverable: the heap cannot be left in
// a partial state, so they are raised as panics rather than returned
// errors. They are declared here so callers can match them with
// errors.Is/errors.As inside a recover.

// ErrOutOfCapacity is panicked when an allocation still fails after a
// scavenge, a grow, and a second scavenge.
var ErrOutOfCapacity = errors.New("heap: out of capacity")

// ErrClassTableExhausted is panicked when the class table's free list is
// empty, the table is at capacity, and a scavenge frees no slots. The
// source this heap is modeled on treats class-table growth as
// unimplemented and aborts; this heap preserves that fatality (see
// DESIGN.md, "Class-table overflow").
var ErrClassTableExhausted = errors.New("heap: class table exhausted")

// ErrSemispaceCapacity is panicked when growing a semispace would exceed
// kMaxSemispaceCapacity.
var ErrSemispaceCapacity = errors.New("heap: requested semispace capacity exceeds maximum")
