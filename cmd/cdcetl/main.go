package main

import "cdcetl/internal/cli"

func main() {
	cli.Execute()
}
