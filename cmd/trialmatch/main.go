package main

import "github.com/trialmatch/workspace/cmd/trialmatch/command"

func main() {
	command.Execute()
}
