// rigtool is a CLI utility for inspecting and retargeting rig documents.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/rigbridge/internal/logger"
)

func main() {
	err := newRootCmd().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
