package domain

import "fmt"

// Error taxonomy for the generation path. Verification findings are never
// errors; they surface through the VerificationReport.

type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

type PreconditionError struct{ Reason string }

func (e *PreconditionError) Error() string { return "precondition: " + e.Reason }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Kind, e.ID) }

type ConflictError struct{ Reason string }

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string { return fmt.Sprintf("crypto %s: %v", e.Op, e.Err) }
func (e *CryptoError) Unwrap() error { return e.Err }

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// AnchoringError is always non-fatal: logged by the anchorer, never returned
// to the generation path.
type AnchoringError struct {
	Channel string
	Err     error
}

func (e *AnchoringError) Error() string { return fmt.Sprintf("anchor %s: %v", e.Channel, e.Err) }
func (e *AnchoringError) Unwrap() error { return e.Err }
