package main

import (
	"github.com/khIbrahim/popcornon/internal/cli"
)

func main() {
	cli.Execute()
}
