package main

import "github.com/emiliopalmerini/timecode/internal/cli"

func main() {
	cli.Execute()
}
