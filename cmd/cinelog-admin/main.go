// Package main is the entry point for the Cinelog admin CLI.
// It manages user accounts and generates signing secrets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prn-tf/cinelog/internal/config"
	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/logging"
	"github.com/prn-tf/cinelog/internal/pkg/crypto"
	"github.com/prn-tf/cinelog/internal/service"
	"github.com/prn-tf/cinelog/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "version":
		fmt.Printf("Cinelog Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		err = runUser(os.Args[2:])

	case "secret":
		err = runSecret(os.Args[2:])

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runUser(args []string) error {
	if len(args) < 1 {
		return errors.New("user requires a subcommand: create, get")
	}

	fs := flag.NewFlagSet("user "+args[0], flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address (create)")
	password := fs.String("password", "", "password (create); generated when empty")
	_ = fs.Parse(args[1:])

	if *username == "" {
		return errors.New("--username is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, closeFn, err := openUserService(ctx, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch args[0] {
	case "create":
		generated := false
		if *password == "" {
			if *password, err = crypto.GeneratePassword(); err != nil {
				return err
			}
			generated = true
		}

		user, err := users.Create(ctx, service.CreateUserInput{
			Username: *username,
			Email:    *email,
			Password: *password,
		})
		if err != nil {
			return err
		}

		printUser(user)
		if generated {
			fmt.Printf("Password:   %s\n", *password)
		}
		return nil

	case "get":
		user, err := users.GetByUsername(ctx, *username)
		if err != nil {
			return err
		}
		printUser(user)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

// openUserService opens the configured database, makes sure the schema is
// current and returns a UserService plus a cleanup func.
func openUserService(ctx context.Context, configPath string) (*service.UserService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	// Keep CLI output clean unless debugging.
	if cfg.Logging.Level == "info" {
		cfg.Logging.Level = "warn"
	}
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	backend, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}

	locker, stopLocker := storage.LocalLocker(cfg.Database.Driver)
	cleanup := func() {
		stopLocker()
		backend.Database.Close()
		closer.Close()
	}

	if err := storage.Migrate(ctx, backend, locker, logger); err != nil {
		cleanup()
		return nil, nil, err
	}

	return service.NewUserService(backend.Repos.User, cfg.Auth.BcryptCost, logger), cleanup, nil
}

func runSecret(args []string) error {
	if len(args) < 1 || args[0] != "generate" {
		return errors.New("secret requires a subcommand: generate")
	}

	fs := flag.NewFlagSet("secret generate", flag.ExitOnError)
	hexBytes := fs.Int("hex", 0, "emit N random bytes hex-encoded instead of a token signing secret")
	_ = fs.Parse(args[1:])

	var (
		secret string
		err    error
	)
	if *hexBytes > 0 {
		secret, err = crypto.GenerateHexSecret(*hexBytes)
	} else {
		secret, err = crypto.GenerateSigningSecret()
	}
	if err != nil {
		return err
	}

	fmt.Println(secret)
	return nil
}

func printUser(user *domain.User) {
	fmt.Printf("ID:         %s\n", user.ID)
	fmt.Printf("Username:   %s\n", user.Username)
	fmt.Printf("Email:      %s\n", user.Email)
	fmt.Printf("Created At: %s\n", user.CreatedAt.Format(time.RFC3339))
}

func printUsage() {
	fmt.Println(`Cinelog Admin CLI

Usage:
  cinelog-admin <command> [arguments]

Commands:
  user create   Create a user (--username, --email, [--password])
  user get      Show a user (--username)
  secret generate
                Print a random auth.jwt_secret ([--hex N] for raw bytes)
  version       Print version information
  help          Show this help message

All user commands accept --config to point at a config file.

Examples:
  cinelog-admin user create --username ripley --email ripley@example.com
  cinelog-admin user get --username ripley
  cinelog-admin secret generate`)
}
