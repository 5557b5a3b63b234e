package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/gokatarajesh/codequiz/internal/cli"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		envFile := os.Getenv("ENV_FILE")
		if envFile == "" {
			envFile = "configs/.env"
		}
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: could not load %s: %v", envFile, err)
		}
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
