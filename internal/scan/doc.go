// Package scan extracts selected string fields from the objects of one
// named array in a JSON document without building the document in memory.
//
// The scan is a forward-only walk over a token.Cursor:
//
//	FindArray     locate the target array among the top-level members
//	WalkArray     visit each element of that array
//	ExtractObject emit mapped fields of one element object to a Sink
//	Skip          consume any value that is not of interest
//
// Skip uses an explicit stack, so nesting depth is limited by memory (and
// by the decoder's depth bound), not by the goroutine stack.
//
// Scanner ties the steps together for an io.Reader.
package scan
