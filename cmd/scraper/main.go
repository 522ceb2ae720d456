package main

import (
	"ShelfScraper/internal/app"
	"flag"
	"log"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	task := flag.String("task", "scrape", "Task to run: scrape or search")
	urls := flag.String("urls", "", "Comma-separated catalog URLs to scrape")
	query := flag.String("query", "", "Product name for the search task")
	flag.Parse()

	application := app.New()
	defer application.Repo.Close()

	log.Printf("Running task: %s", *task)

	switch *task {
	case "scrape":
		application.RunCatalogScraper(*urls)

	case "search":
		application.RunImageSearch(*query)

	default:
		log.Fatalf("Unknown task: %s.", *task)
	}
}
