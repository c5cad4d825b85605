// Command dreambiz runs the business profile registry and shift ledger,
// either as an HTTP service or as one-shot administrative commands.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
