package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorProtectedPath
	ErrorInvalidPath
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "In use"
	case ErrorFileNotFound:
		return "Not found"
	case ErrorProtectedPath:
		return "Protected path"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError is a failed removal of one match
type DeletionError struct {
	Path     string
	Reason   ErrorReason
	Original error
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

// Unwrap returns the underlying filesystem error
func (e *DeletionError) Unwrap() error {
	return e.Original
}

// UserMessage returns a one-line message suitable for the terminal
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("Permission denied: %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("In use: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("Already gone: %s", e.Path)
	case ErrorProtectedPath:
		return fmt.Sprintf("Refused protected path: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("Invalid path: %s", e.Path)
	default:
		return fmt.Sprintf("Error deleting %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	switch {
	case os.IsNotExist(err):
		delErr.Reason = ErrorFileNotFound
		return delErr
	case os.IsPermission(err):
		delErr.Reason = ErrorPermissionDenied
		return delErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM, syscall.EROFS:
			delErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ErrorFileInUse
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.EINVAL, syscall.ENAMETOOLONG:
			delErr.Reason = ErrorInvalidPath
		}
	}

	return delErr
}

// GroupErrors groups deletion errors by reason
func GroupErrors(errs []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a grouped summary of deletion failures
func FormatErrorSummary(errs []*DeletionError) string {
	if len(errs) == 0 {
		return ""
	}

	grouped := GroupErrors(errs)
	var b strings.Builder
	b.WriteString("Issues encountered:\n")

	if perms, ok := grouped[ErrorPermissionDenied]; ok {
		fmt.Fprintf(&b, "  - Permission denied: %d items\n", len(perms))
		b.WriteString("    Tip: check ownership of the listed directories\n")
	}
	if busy, ok := grouped[ErrorFileInUse]; ok {
		fmt.Fprintf(&b, "  - In use: %d items\n", len(busy))
		b.WriteString("    Tip: stop running builds or editors and retry\n")
	}
	if notFound, ok := grouped[ErrorFileNotFound]; ok {
		fmt.Fprintf(&b, "  - Already gone: %d items\n", len(notFound))
	}
	if protected, ok := grouped[ErrorProtectedPath]; ok {
		fmt.Fprintf(&b, "  - Protected paths refused: %d items\n", len(protected))
	}
	if invalid, ok := grouped[ErrorInvalidPath]; ok {
		fmt.Fprintf(&b, "  - Invalid paths: %d items\n", len(invalid))
	}
	if unknown, ok := grouped[ErrorUnknown]; ok {
		fmt.Fprintf(&b, "  - Other errors: %d items\n", len(unknown))
	}

	return b.String()
}
