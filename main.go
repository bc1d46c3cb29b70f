package main

import (
	"github.com/fivestack-gg/fivestack/internal/cmd"
)

func main() {
	cmd.Execute()
}
