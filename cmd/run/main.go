package main

import (
	"log"

	"github.com/zintix-labs/quadlab/sdk/perf"
)

// makefile runner
func main() {
	bindVar()
	if err := perf.RunPProf(execute, cfg.pprofmode, ""); err != nil {
		log.Fatal(err)
	}
}
