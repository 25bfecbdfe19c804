// Package heap implements the managed-object heap of the primordialsoup
// runtime: a semispace copying collector with ephemeron and weak-array
// support, an identity-preserving become, and a fixed-capacity class table
// that recycles freed class ids; the class table does not grow, and
// exhausting it panics.
//
// The heap is an embedded library, not a service: it has no file format,
// no wire protocol, and no command-line surface. A host interpreter drives
// it through the typed allocators, the root/handle API, and Become;
// everything else (bytecode execution, method lookup, object-store
// layout) is the host's responsibility.
package heap
