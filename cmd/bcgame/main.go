package main

import (
	"github.com/mcoot/battlecode-go/internal/cli"
)

func main() {
	cli.Execute()
}
