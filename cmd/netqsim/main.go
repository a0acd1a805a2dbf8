package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd := newRootCmd(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", rootCmd.Name(), err)
		fmt.Fprintf(os.Stderr, "Try `%s -h' for more information.\n", rootCmd.Name())
		os.Exit(1)
	}
}
