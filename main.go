package main

import "github.com/curaious/sandpilot/cmd"

func main() {
	cmd.Execute()
}
