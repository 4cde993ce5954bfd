package main

import "github.com/andrescamacho/fleetd/internal/adapters/cli"

func main() {
	cli.Execute()
}
