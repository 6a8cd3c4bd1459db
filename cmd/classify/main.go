package main

import (
	"flag"
	"log"

	"foodwatch/internal/classifier"
	"foodwatch/internal/database"
	"foodwatch/internal/documents"

	"github.com/joho/godotenv"
)

func main() {
	// Command line flags
	since := flag.Int("since", 7, "Only score documents created in the last N days")
	unseen := flag.Bool("unseen", false, "Only score documents without a prior prediction")
	all := flag.Bool("all", false, "Score every document, overriding -since and -unseen")
	verbose := flag.Bool("v", false, "Log every prediction")
	fpModel := flag.String("fp-model", "", "Path to the false-positive model file")
	multModel := flag.String("mult-model", "", "Path to the multiple-illness model file")
	incModel := flag.String("inc-model", "", "Path to the incident model file")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	byField := map[documents.Field]classifier.Model{}
	for field, path := range map[documents.Field]string{
		documents.FalsePositive:   *fpModel,
		documents.MultipleIllness: *multModel,
		documents.Incident:        *incModel,
	} {
		if path == "" {
			continue
		}
		model, err := classifier.LoadModel(path)
		if err != nil {
			log.Fatal("Failed to load model:", err)
		}
		byField[field] = model
	}
	if len(byField) == 0 {
		log.Fatal("No model files given; pass at least one of -fp-model, -mult-model, -inc-model")
	}

	// Connect to database
	dbConfig := database.LoadConfig()
	db, err := database.Connect(dbConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	log.Println("🔎 Classifying documents...")

	runner := classifier.NewRunner(db, documents.NewService(db), byField)
	selection := classifier.Selection{SinceDays: *since, Unseen: *unseen, All: *all}
	if err := runner.Classify(selection, *verbose); err != nil {
		log.Fatal("Classification failed:", err)
	}

	log.Println("✅ Classification completed")
}
