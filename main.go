// main holds the entry point of the livemeasure CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/livemeasure/cmd"
	"github.com/huangsam/livemeasure/internal/iocache"
)

func main() {
	defer iocache.CloseStore()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		iocache.CloseStore()
		os.Exit(1)
	}
}
