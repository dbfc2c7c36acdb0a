package main

import (
	"fmt"
	"os"

	"github.com/park285/chess-vault/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
	}
	a := newApp(os.Stdin)
	err := newRootCmd(a).Execute()
	_ = a.finish()
	_ = obslog.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}
