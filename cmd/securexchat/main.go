package main

import (
	"os"

	"github.com/securexchat/client-go/cmd/securexchat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
