// migrate applies the embedded SQL migrations: go run ./cmd/migrate -direction=up
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dom/session-auth/internal/config"
	"github.com/dom/session-auth/internal/db/migrate"
	"github.com/joho/godotenv"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	_ = godotenv.Load()

	databaseURL, err := config.LoadDatabaseURL()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if err := migrate.Run(databaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Printf("migrations applied (%s)\n", *direction)
}
