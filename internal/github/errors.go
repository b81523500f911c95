package github

import (
	"errors"
	"fmt"
)

// Kind discriminates classified API failures. Callers branch on Kind instead
// of parsing status codes out of message strings.
type Kind string

const (
	// KindUnauthorized is a 401 from the repository check.
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden is a 403 from the repository check.
	KindForbidden Kind = "forbidden"
	// KindNotFound is a 404 on the repository itself.
	KindNotFound Kind = "not_found"
	// KindInsufficientPermission means the repository is reachable but the
	// token metadata explicitly reports no push access.
	KindInsufficientPermission Kind = "insufficient_permission"
	// KindBranchLookup is a non-404 failure while querying a branch.
	KindBranchLookup Kind = "branch_lookup"
	// KindBranchCreation is a non-conflict failure while creating a ref.
	KindBranchCreation Kind = "branch_creation"
	// KindUploadTransport is a network or HTTP failure during the content PUT.
	KindUploadTransport Kind = "upload_transport"
)

// Error is a classified GitHub API failure. StatusCode is zero for transport
// errors that never produced a response.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("github: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github: %s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is a classified API error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
