// Command navsync replays presentation scenarios against the navsync
// reference surfaces.
package main

import (
	"os"

	"github.com/go-drift/navsync/cmd/navsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
