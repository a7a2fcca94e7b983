package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultClient).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
