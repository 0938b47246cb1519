package main

import (
	"github.com/menosense/portal/cmd/portalctl/command"
)

func main() {
	command.Execute()
}
