package blob

import "errors"

var (
	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = errors.New("blob: not found")
	// ErrContainerNotFound is returned when the container does not exist.
	ErrContainerNotFound = errors.New("blob: container not found")
	// ErrConflict is returned when a create-if-absent target already exists.
	ErrConflict = errors.New("blob: already exists")
	// ErrPreconditionFailed is returned when an If-Match ETag is stale or the blob is missing.
	ErrPreconditionFailed = errors.New("blob: precondition failed")
	// ErrInvalidName is returned for malformed container or blob names.
	ErrInvalidName = errors.New("blob: invalid name")
)

// Error codes carried in HTTP error bodies.
const (
	CodeBlobNotFound       = "BlobNotFound"
	CodeContainerNotFound  = "ContainerNotFound"
	CodeConflict           = "Conflict"
	CodePreconditionFailed = "ConditionNotMet"
	CodeInvalidName        = "InvalidResourceName"
	CodeInternal           = "InternalError"
)

// Code maps an error to its wire code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeBlobNotFound
	case errors.Is(err, ErrContainerNotFound):
		return CodeContainerNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrPreconditionFailed):
		return CodePreconditionFailed
	case errors.Is(err, ErrInvalidName):
		return CodeInvalidName
	default:
		return CodeInternal
	}
}

// FromCode maps a wire code back to its sentinel, or nil for unknown codes.
func FromCode(code string) error {
	switch code {
	case CodeBlobNotFound:
		return ErrNotFound
	case CodeContainerNotFound:
		return ErrContainerNotFound
	case CodeConflict:
		return ErrConflict
	case CodePreconditionFailed:
		return ErrPreconditionFailed
	case CodeInvalidName:
		return ErrInvalidName
	default:
		return nil
	}
}
