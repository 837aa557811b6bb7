package main

import (
	"log"
	"os"

	"github.com/Joseda-hg/studyboard/cmd/studyboard/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		log.Printf("studyboard: %v", err)
		os.Exit(1)
	}
}
