package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// noArgs and exactArgs wrap cobra's validators so argument mistakes exit
// with the user error code.
func noArgs(cmd *cobra.Command, args []string) error {
	return usage(cobra.NoArgs(cmd, args))
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usage(cobra.ExactArgs(n)(cmd, args))
	}
}

func usage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errUsage, err)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// parseRecord decodes a JSON object given on the command line.
func parseRecord(arg string) (types.Record, error) {
	dec := json.NewDecoder(strings.NewReader(arg))
	dec.UseNumber()
	var rec types.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", types.ErrInvalidData)
	}
	return rec, nil
}

// parseRecords decodes a JSON array of objects, as read from a seed file.
func parseRecords(data []byte) ([]types.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty seed file", types.ErrInvalidData)
	}
	records, err := types.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return records, nil
}

// summary renders a record on one line: its id followed by a few
// identifying fields when present.
func summary(rec types.Record) string {
	id, _ := rec.ID()
	var parts []string
	for _, k := range []string{"name", "title", "username", "question", "category"} {
		if v, ok := rec[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	if len(parts) == 0 {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if k != types.FieldID {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		parts = keys
	}
	return fmt.Sprintf("%s\t%s", id, strings.Join(parts, " "))
}
