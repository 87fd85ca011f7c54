package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go-distribution-ws/internal/config"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/repository"
	"go-distribution-ws/internal/service"
	"go-distribution-ws/pkg/database"
)

// create-root onboards one of the (at most two) creator-less pabrik accounts.
//
//	go run ./cmd/create-root -email pabrik@example.com -username "Pabrik Utama" -password secret123
//
// Flags fall back to ROOT_EMAIL, ROOT_USERNAME, ROOT_PASSWORD, ROOT_PHONE and ROOT_ADDRESS.
func main() {
	// 1. Load Env
	cfg := config.Load()

	email := flag.String("email", os.Getenv("ROOT_EMAIL"), "email of the root account")
	username := flag.String("username", os.Getenv("ROOT_USERNAME"), "display name")
	password := flag.String("password", os.Getenv("ROOT_PASSWORD"), "initial password (min 6 characters)")
	phone := flag.String("phone", os.Getenv("ROOT_PHONE"), "phone number")
	address := flag.String("address", os.Getenv("ROOT_ADDRESS"), "address")
	flag.Parse()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DB.DSN(), cfg.DB.Pool)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("❌ Failed to migrate database: %v", err)
	}

	// 3. Create the account through the same rules as the API
	userRepo := repository.NewUserRepo(db)
	userService := service.NewUserService(userRepo,
		repository.NewTransactionRepo(db),
		repository.NewDebtRepo(db),
		repository.NewProductRepo(db))

	user, err := userService.CreateRoot(context.Background(), &service.CreateUserRequest{
		Username: *username,
		Email:    *email,
		Password: *password,
		Address:  *address,
		Phone:    *phone,
	})
	if err != nil {
		log.Fatalf("❌ Failed to create root account: %v", err)
	}

	log.Printf("✅ Root %s account created: %s (%s)", user.Role, user.Email, user.ID)
}
