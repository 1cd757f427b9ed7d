package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

func writeJSONLine(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitIO, errors.Wrap(err, "json encode"))
	}
	return nil
}
