// PairQuant - Label pair quantification tool
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/PairQuant/cmd/pairquant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
