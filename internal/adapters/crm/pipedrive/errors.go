package pipedrive

import "errors"

// Sentinel kinds for CRM client errors.
var (
	ErrUpdateFailed   = errors.New("deal update failed")
	ErrUpdateRejected = errors.New("deal update rejected")
)
