package remote

import "fmt"

// IntegrityError reports a digest mismatch between a downloaded bundle
// and what its manifest declared. The install is aborted and nothing
// is registered.
type IntegrityError struct {
	AppID    string
	Declared string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("bundle integrity check failed for %q: declared %s, got %s",
		e.AppID, e.Declared, e.Actual)
}
