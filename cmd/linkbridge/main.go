// Command linkbridge drives a Link session from a simulated real-time audio
// callback.
package main

import (
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
