// Command insulcalc runs insulation savings calculations from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/warp/insulation-engine/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
