package contexts

import "errors"

var (
	// ErrNotFound indicates the context doesn't exist, or is private and
	// the requester is not its owner.
	ErrNotFound = errors.New("context not found")
	// ErrFileNotFound indicates the named file doesn't exist in the context.
	ErrFileNotFound = errors.New("file not found")
	// ErrDuplicateName indicates the owner already has a context with that name.
	ErrDuplicateName = errors.New("context name already in use")
	// ErrNotAuthorized indicates a mutation attempted by a non-owner on a
	// context whose existence the requester can see.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrInvalidInput indicates an empty name, malformed repository URL or
	// otherwise invalid request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResolutionFailure indicates the repository reference could not be
	// resolved at all; fatal to linked context creation.
	ErrResolutionFailure = errors.New("repository could not be resolved")
	// ErrDefaultFileProtected indicates an attempt to delete one of the
	// four generated files. Defaults can be edited or regenerated only.
	ErrDefaultFileProtected = errors.New("default files cannot be deleted")
)
