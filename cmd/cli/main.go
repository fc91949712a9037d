package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/potatoomann/11code-site/internal/store"
)

func main() {
	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	email := addUserCmd.String("email", "", "Email for the admin user")
	password := addUserCmd.String("password", "", "Password for the admin user")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add-user":
		addUserCmd.Parse(os.Args[2:])
		if *email == "" || *password == "" {
			fmt.Println("email and password are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		createUser(*email, *password)
	case "list-products":
		listProducts()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("expected 'add-user' or 'list-products' subcommand")
}

func dataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

func createUser(email, password string) {
	users := store.NewAdminUserStore(dataDir())
	if err := users.Upsert(email, password); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("Admin user '%s' created successfully.\n", email)
}

func listProducts() {
	products, err := store.NewProductStore(dataDir()).List()
	if err != nil {
		log.Fatalf("Failed to read products: %v", err)
	}
	if len(products) == 0 {
		fmt.Println("no products")
		return
	}
	for _, p := range products {
		status := ""
		if p.OutOfStock {
			status = "  [out of stock]"
		}
		fmt.Printf("%-20s %-30s %10.2f%s\n", p.ID, p.Name, p.Price, status)
	}
}
