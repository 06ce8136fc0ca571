package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gitlab.com/dirk.krummacker/contactbook-service/internal/book"
	"gitlab.com/dirk.krummacker/contactbook-service/internal/service"
	"gitlab.com/dirk.krummacker/contactbook-service/internal/store"
)

// Usage example on the command line:
// > PORT=8080 STORE=file DATA_DIR=./data GIN_MODE=release GIN_LOGGING=OFF go run main.go
//
// With the MySQL backend (schema applied beforehand by cmd/migration):
// > PORT=8080 STORE=mysql DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run main.go
func main() {
	// A .env file is optional; explicit environment variables win.
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded configuration from .env file.")
	}
	s := createStore()
	b := book.New(s)
	router := service.SetupHttpRouter(b, s)
	_, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		fmt.Println("could not parse PORT env variable", err)
		panic(err)
	}
	router.Run(":" + os.Getenv("PORT"))
}

// createStore builds the persistence backend selected by the STORE env
// variable. The file backend is the default; its data directory can be
// overridden with DATA_DIR.
func createStore() store.Store {
	switch os.Getenv("STORE") {
	case "mysql":
		return store.NewSQLStore(store.CreateDatabase())
	case "file", "":
		dir := os.Getenv("DATA_DIR")
		if dir == "" {
			dir = "data"
		}
		s, err := store.NewFileStore(dir)
		if err != nil {
			log.Fatal(err)
		}
		return s
	default:
		log.Fatalf("unknown STORE backend %q", os.Getenv("STORE"))
		return nil
	}
}
