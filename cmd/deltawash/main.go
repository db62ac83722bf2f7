// Command deltawash runs the handwashing-compliance wash interpreter:
// live capture against a camera and LED strip, deterministic replay
// against a manifest of annotated assets, or the analytics subsystem
// that rolls up session logs into operational metrics.
package main

import (
	"fmt"
	"os"

	"github.com/deltawash/deltawash/cmd/deltawash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitCodeFor(err))
	}
}
