// Package main is the entry point for the Warden Bot CLI.
package main

import (
	"github.com/wardengh/warden-bot/cmd/warden/commands"
)

func main() {
	commands.Execute()
}
