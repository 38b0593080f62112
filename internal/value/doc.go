// Package value defines the variant type held by puppet variables.
//
// A Value is one of five sealed kinds:
//   - String: free text, produced by SET and plain assignments
//   - Int: integer counts (e.g. the "jobs" command)
//   - Bool: window predicates (isenabled, isvisible, ...)
//   - Pointer: an opaque window handle
//   - PointerSeq: an ordered list of window handles
//
// Read sites pattern-match with a type switch; there is no implicit
// conversion between kinds.
package value
