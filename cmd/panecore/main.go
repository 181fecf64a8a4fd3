// Command panecore hosts the pane orchestration core standalone: it runs
// the BootSequencer and keeps the process alive. The core itself exposes
// no CLI surface (spec.md §6) — this binary exists only so an operator can
// invoke BootSequencer without an embedding UI shell, grounded on the
// teacher's cobra-based cmd/ layout.
package main

import (
	"fmt"
	"os"

	"github.com/tabworks/panecore/cmd/panecore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
