package main

import (
	"os"

	"github.com/aretw0/satchel/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// prettyOutput reports whether the command writes to a terminal.
func prettyOutput(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && tui.IsTerminal(f)
}
