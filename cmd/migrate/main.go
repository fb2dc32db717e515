// Command migrate applies the Postgres schema.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"blogsmith/internal/db"
)

func main() {
	var (
		dsnFlag   string
		printFlag bool
	)
	flag.StringVar(&dsnFlag, "dsn", "", "database URL (fallbacks to DATABASE_URL)")
	flag.BoolVar(&printFlag, "print", false, "print the schema instead of applying it")
	flag.Parse()

	if printFlag {
		fmt.Print(db.Schema)
		return
	}

	_ = godotenv.Load()
	dsn := strings.TrimSpace(dsnFlag)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		exitWithError(fmt.Errorf("DATABASE_URL is required"))
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		exitWithError(fmt.Errorf("ping database: %w", err))
	}
	if err := db.Apply(ctx, conn); err != nil {
		exitWithError(err)
	}
	fmt.Println("schema applied")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
