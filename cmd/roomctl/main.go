package main

import "github.com/mcoot/votingroom/internal/cli"

func main() {
	cli.Execute()
}
