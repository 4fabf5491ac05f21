package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// errTrailingData is returned when the body holds more than one JSON value.
var errTrailingData = errors.New("unexpected data after JSON body")

// DecodeJSON decodes the request body into v. An empty body is not an error
// and leaves v untouched. Unknown fields are ignored, and keys are matched to
// struct tags case-insensitively as encoding/json does. Anything other than
// whitespace after the first JSON value is rejected.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}
