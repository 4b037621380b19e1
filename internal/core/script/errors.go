package script

import "errors"

var (
	ErrLoaderSetup        = errors.New("script loader could not be constructed")
	ErrDomainUnloaded     = errors.New("script domain has been unloaded")
	ErrNotActive          = errors.New("no active script domain")
	ErrAlreadyInitialized = errors.New("script domain already initialized")

	ErrUnknownType   = errors.New("unknown entity type")
	ErrDuplicateType = errors.New("entity type already registered")
	ErrNotStaged     = errors.New("entity was not created")
	ErrInvalidType   = errors.New("invalid entity type")

	ErrScript         = errors.New("script error")
	ErrScriptCallback = errors.New("script callback failed")
	ErrSnapshot       = errors.New("invalid reload snapshot")
)
