package main

import (
	"github.com/menosense/portal/api"
)

func main() {
	api.MainLoop()
}
