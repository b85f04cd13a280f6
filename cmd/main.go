package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/enviroshake/gallery-backend/internal/app"
)

func main() {
	// .env wins over an already-exported stale value, as the deployment
	// scripts expect.
	_ = godotenv.Overload()

	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		a.Log.Error("server exited", "error", err)
		a.Close()
		os.Exit(1)
	}
}
