package main

import (
	"log"

	"task-calendar/app/commands"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := commands.Execute(); err != nil {
		log.Fatal(err)
	}
}
