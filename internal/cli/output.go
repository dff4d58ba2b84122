package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

//nolint:gochecknoglobals
var validFormats = []string{FormatText, FormatJSON}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string
}

// output writes a command result as text or as indented JSON.
type output struct {
	format string
	w      io.Writer
}

func newOutput(opts *RootOptions, cmd *cobra.Command) output {
	return output{format: opts.Format, w: cmd.OutOrStdout()}
}

// emit writes data as JSON, or calls text for the text format.
func (o output) emit(data any, text func(w io.Writer)) error {
	if o.format == FormatJSON {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}

		return nil
	}

	text(o.w)

	return nil
}

// message is the JSON form of a plain status line.
type message struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (o output) message(msg string) error {
	return o.emit(message{Success: true, Message: msg}, func(w io.Writer) {
		fmt.Fprintln(w, msg)
	})
}

func isValidFormat(format string) bool {
	return slices.Contains(validFormats, format)
}
