// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artvision/artvision/geocode"
)

// isTerminal tells if the file is attached to a terminal. If we can't
// tell, we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Shows how conservation-place strings normalize into cache keys",
	Long: `Reads one conservation-place string per line and prints the parsed place,
the cache key and the provider query it produces.

$ echo "musée > Musée du Louvre, Paris, France" | artvision debug key
musée > Musée du Louvre, Paris, France	key=paris	query="Paris, France"
	`,
	RunE: func(_ *cobra.Command, _ []string) error {
		input := os.Stdin
		if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Enter conservation-place strings, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			line := scanner.Text()
			place := geocode.ParsePlace(line)
			fmt.Printf("%s\tkey=%s\tquery=%q\n", line, place.Key(), place.Query())
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugKeyCmd)
}
