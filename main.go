package main

import (
	"log"

	"github.com/fraudops/fieldkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
