// The isoreplay command replays interleaved transactions against a
// database and records their histories.
package main

import "github.com/wrale/isoreplay/internal/isoreplay/cmd"

func main() {
	cmd.Execute()
}
