package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments use the keychain.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		log.SetFlags(0)
		log.Print(err)
		os.Exit(1)
	}
}
