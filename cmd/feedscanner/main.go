package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := rootApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
