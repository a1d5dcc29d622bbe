package main

import (
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// The deployment keeps the bot token and provider API keys in a .env
	// file next to the binary. Missing files are fine.
	_ = godotenv.Load()

	cli.Execute()
}
