package main

import (
	"github.com/joho/godotenv"

	"github.com/opencourier/driverd/cmd"
)

func main() {
	// .env is optional; real deployments use environment variables
	_ = godotenv.Load()
	cmd.Execute()
}
