// Package display renders command results for people (pterm) or programs (JSON).
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/umi/errors"
)

// JSONEnv forces JSON output when set to a true-ish value.
const JSONEnv = "UMI_JSON"

// ShouldOutputJSON reports whether a command should print JSON: an explicit
// --json flag wins, then the root's persistent --json, then UMI_JSON.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
			v, _ := cmd.Flags().GetBool("json")
			return v
		}
		if v, _ := cmd.Root().PersistentFlags().GetBool("json"); v {
			return true
		}
	}
	switch os.Getenv(JSONEnv) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// OutputJSON writes v to w as JSON followed by a newline.
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
