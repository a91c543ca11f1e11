package main

import (
	"flag"
	"fmt"
	"os"

	"debtflow.io/internal/database"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres DSN")
		down        = flag.Bool("down", false, "roll back one migration instead of applying all")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "migrate: DATABASE_URL or -database-url is required")
		os.Exit(2)
	}

	if *down {
		m, err := database.NewMigrator(*databaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		defer m.Close()
		if err := m.Steps(-1); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("rolled back one migration")
		return
	}

	if err := database.RunMigrations(*databaseURL); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("migrations applied")
}
