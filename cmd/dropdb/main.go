package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"foodwatch/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbConfig := database.LoadConfig()

	fmt.Printf("⚠️  This will drop ALL tables in database %q. Are you sure? [yes/no]: ", dbConfig.DBName)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("Failed to read confirmation:", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "yes" && answer != "y" {
		log.Println("Aborted, nothing dropped")
		return
	}

	// Connect to database
	db, err := database.Connect(dbConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	if err := database.Drop(db); err != nil {
		log.Fatal("Failed to drop tables:", err)
	}

	log.Println("🗑️  All tables dropped")
}
