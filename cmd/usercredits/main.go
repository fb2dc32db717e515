// Command usercredits initialises credit records and grants purchased credits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"blogsmith/internal/adapter/repo"
	"blogsmith/internal/credits"
	"blogsmith/internal/infra"
)

func main() {
	var (
		emailFlag string
		grantFlag int
		initFlag  bool
	)
	flag.StringVar(&emailFlag, "email", "", "user email")
	flag.IntVar(&grantFlag, "grant", 0, "purchased credits to add (0 only prints the balance)")
	flag.BoolVar(&initFlag, "init", false, "create the credit record if it does not exist")
	flag.Parse()

	_ = godotenv.Load()

	email := strings.TrimSpace(emailFlag)
	if email == "" {
		exitWithError(errors.New("-email is required"))
	}
	if grantFlag < 0 {
		exitWithError(errors.New("-grant must not be negative"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "usercredits").Logger()
	gate := credits.NewService(repo.NewUserRepository(infra.NewSQLRunner(pool, logger)), logger)

	if initFlag {
		_, created, err := gate.Init(ctx, email)
		if err != nil {
			exitWithError(fmt.Errorf("failed to initialise user: %w", err))
		}
		if created {
			fmt.Printf("User %s initialised\n", credits.NormalizeEmail(email))
		}
	}

	var balance credits.Balance
	if grantFlag > 0 {
		balance, err = gate.AddPurchased(ctx, email, grantFlag)
	} else {
		balance, err = gate.Check(ctx, email)
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to update credits: %w", err))
	}

	fmt.Printf("User %s\n", balance.Email)
	fmt.Printf("free=%d purchased=%d total=%d\n", balance.Free, balance.Purchased, balance.Total)
	fmt.Printf("next_free_reset=%s\n", balance.NextReset.Format(time.RFC3339))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
