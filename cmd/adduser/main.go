// Command adduser creates an account directly in MongoDB. It is the way to
// bootstrap the first admin when admin self-registration is disabled.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/term"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
	"github.com/stockroom/inventory-api/internal/infrastructure/config"
	mongodb "github.com/stockroom/inventory-api/internal/infrastructure/db/mongo"
	"github.com/stockroom/inventory-api/internal/infrastructure/security"
)

// openFunc connects to the user store; the returned func releases it.
type openFunc func(ctx context.Context, cfg config.MongoConfig) (ports.UserRepository, func(), error)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, openMongo); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, open openFunc) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	roleFlag := fs.String("role", string(domain.RoleViewer), "Role: admin or viewer")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-role admin|viewer] [-password <password>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	role, err := domain.ParseRole(*roleFlag)
	if err != nil {
		return err
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx := context.Background()

	var mcfg config.MongoConfig
	if err := envconfig.Process(ctx, &mcfg); err != nil {
		return fmt.Errorf("failed to load mongo configuration: %w", err)
	}

	repo, closeFn, err := open(ctx, mcfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeFn()

	hash, err := security.NewBcryptHasher(security.DefaultCost).Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := repo.Create(ctx, &domain.User{
		Email:        domain.NormalizeEmail(*email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return fmt.Errorf("user %s already exists", domain.NormalizeEmail(*email))
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with role %s and ID %s\n", user.Email, user.Role, user.ID)
	return nil
}

func openMongo(ctx context.Context, cfg config.MongoConfig) (ports.UserRepository, func(), error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.URI, Database: cfg.Database, Timeout: cfg.Timeout})
	if err != nil {
		return nil, nil, err
	}
	repo := mongodb.NewUserRepository(db, cfg.Timeout)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return repo, func() { _ = client.Disconnect(context.Background()) }, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Non-terminal input (pipes, tests).
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
