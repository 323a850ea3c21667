package util

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// PrintJSON writes an indented JSON rendering of data to standard output.
func PrintJSON(data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	fmt.Println(string(out))
	return nil
}
