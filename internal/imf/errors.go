package imf

import "fmt"

// ErrYearRange is returned when a requested range has its start year
// after its end year.
var ErrYearRange = fmt.Errorf("start year is after end year")

// ErrHTTP wraps a non-2xx API response with its status and body.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// SchemaError is returned when a response decodes as JSON but does not
// carry the expected values tree. Path names the missing branch.
type SchemaError struct {
	Path string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected response shape: missing %q", e.Path)
}
