package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alextreichler/shop2host/internal/models"
	"github.com/alextreichler/shop2host/internal/store"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const usage = "expected 'add-admin' or 'migrate' subcommand"

func main() {
	addAdminCmd := flag.NewFlagSet("add-admin", flag.ExitOnError)
	name := addAdminCmd.String("name", "", "Display name of the admin")
	email := addAdminCmd.String("email", "", "Email address used to log in")
	phone := addAdminCmd.String("phone", "", "Phone number")
	password := addAdminCmd.String("password", "", "Password for the admin")

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	// Same environment as the server; a missing .env is fine.
	_ = godotenv.Load()

	switch os.Args[1] {
	case "add-admin":
		addAdminCmd.Parse(os.Args[2:])
		if *email == "" || *password == "" {
			fmt.Println("email and password are required")
			addAdminCmd.PrintDefaults()
			os.Exit(1)
		}
		db := openStore()
		defer db.Close()
		addAdmin(db, *name, strings.ToLower(strings.TrimSpace(*email)), *phone, *password)
	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		db := openStore()
		defer db.Close()
		fmt.Println("Migrations applied.")
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

// openStore connects with DB_DRIVER/DB_DSN and brings the schema up to date.
func openStore() *store.Store {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "file:shop2host.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := store.NewStore(driver, dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func addAdmin(db *store.Store, name, email, phone, password string) {
	ctx := context.Background()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	if name == "" {
		name = email
	}

	err = db.CreateUser(ctx, &models.User{
		Name:     name,
		Phone:    phone,
		Email:    email,
		Password: string(hashedPassword),
		Verified: true,
		IsAdmin:  true,
	})
	switch {
	case err == nil:
		fmt.Printf("Admin '%s' created successfully.\n", email)
	case errors.Is(err, store.ErrConflict):
		// Existing accounts keep their password; only the flags change.
		if err := db.PromoteAdmin(ctx, email); err != nil {
			log.Fatalf("Failed to promote user: %v", err)
		}
		fmt.Printf("Existing user '%s' promoted to admin.\n", email)
	default:
		log.Fatalf("Failed to create admin: %v", err)
	}
}
