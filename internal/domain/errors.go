package domain

import "errors"

var (
	// ErrBadRequest is returned when a request is malformed
	ErrBadRequest = errors.New("bad request")

	// ErrBadRange is returned when a requested clock range is invalid
	ErrBadRange = errors.New("requested clock range is invalid")

	// ErrLocked is returned when a wallet is held by another sync or write
	ErrLocked = errors.New("wallet is locked by another operation")

	// ErrNotFound is returned when a user, file or CID is not found
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the requested content is deny-listed
	// or the caller is not authorized
	ErrForbidden = errors.New("forbidden")

	// ErrRangeNotSatisfiable is returned when a byte range falls outside
	// the stored blob
	ErrRangeNotSatisfiable = errors.New("requested byte range is not satisfiable")

	// ErrRegression is returned when fetched state precedes local state
	ErrRegression = errors.New("fetched clock precedes local clock")

	// ErrNonContiguous is returned when fetched clock records do not
	// extend local state in single steps
	ErrNonContiguous = errors.New("fetched clock records are not contiguous with local state")

	// ErrClockConflict is returned when a clock value was already
	// committed for the user
	ErrClockConflict = errors.New("clock value already committed")

	// ErrNoPrimaryAvailable is returned when replica selection ends with
	// an empty candidate set
	ErrNoPrimaryAvailable = errors.New("no healthy primary available")

	// ErrUpstream is returned when a peer or gateway fetch fails
	ErrUpstream = errors.New("upstream fetch failed")

	// ErrInternal is returned when the node fails for a reason the
	// caller cannot act on
	ErrInternal = errors.New("internal error")
)
