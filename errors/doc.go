// Package errors provides structured error types for the asmmeta library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes the byte offset at which a structural
// problem was detected and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTables, errors.KindMalformedTableStream).
//		Offset(0x210).
//		Detail("row counts exceed stream size").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidContainer("missing PE signature")
//	err := errors.OutOfBounds(errors.PhaseHeaps, 0x40, 8, 3)
//
// All errors implement the standard error interface and support errors.Is/As.
// The CLI maps Kind values to process exit codes via KindOf; the library
// itself never prints or exits.
package errors
