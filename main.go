package main

import (
	"github.com/subgate/subgate/cmd"
)

func main() {
	cmd.Execute()
}
