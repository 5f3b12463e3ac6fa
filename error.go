package render

import "pipelined.dev/render/fault"

// Error kinds returned by engine. They are aliases of fault package
// sentinels, so both can be used with errors.Is.
var (
	ErrInvalidArgument     = fault.ErrInvalidArgument
	ErrUnresolvedInput     = fault.ErrUnresolvedInput
	ErrUnsupportedLayout   = fault.ErrUnsupportedLayout
	ErrNotPrepared         = fault.ErrNotPrepared
	ErrNotCompiled         = fault.ErrNotCompiled
	ErrIncompatibleVersion = fault.ErrIncompatibleVersion
)
