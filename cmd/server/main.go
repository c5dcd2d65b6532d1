package main

import (
	"os"

	"deskflow/cmd/cli"
)

func main() {
	// default to the run command so `go run ./cmd/server` starts the server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}
	cli.Execute()
}
