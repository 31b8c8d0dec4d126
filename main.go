package main

import (
	"fmt"
	"os"

	"trustvest/internal/server"
)

func main() {
	mode := "api"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	switch mode {
	case "api":
		server.ApiInit()
	case "worker":
		server.WorkerInit()
	default:
		fmt.Println("usage: trustvest [api|worker]")
		os.Exit(1)
	}
}
