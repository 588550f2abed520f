package main

import (
	"log"

	"github.com/logidesk/backoffice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
