// Command puppyctl runs the puppy report pipeline outside Lambda. It is used
// to preview reports, check the parser against saved pages and trigger a one
// off send.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
