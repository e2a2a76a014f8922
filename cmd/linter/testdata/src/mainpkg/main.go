package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) > 3 {
		panic("too many args")
	}
	if err := run(); err != nil {
		log.Fatal(err)
	}
	os.Exit(0)
}

func run() error {
	os.Exit(1) // want "call to os.Exit outside main.main"
	return nil
}

type app struct{}

func (app) main() {
	log.Fatalln("method named main") // want "call to log.Fatalln outside main.main"
}
