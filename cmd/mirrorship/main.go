package main

import "github.com/mirrorship/mirrorship/cmd/mirrorship/cli"

func main() {
	cli.Execute()
}
