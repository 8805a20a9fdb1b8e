package main

import "github.com/ystepanoff/nrfs/internal/cli"

func main() {
	cli.Execute()
}
