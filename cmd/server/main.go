package main

import (
	"ShelfScraper/internal/database"
	"ShelfScraper/internal/imagesearch"
	"ShelfScraper/internal/mapper"
	"ShelfScraper/internal/server"
	"ShelfScraper/pkg/config"
	"log"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// The server loads its own config
	cfg := config.LoadConfig("config.yml")

	// The server reads from the same database the scraper writes to
	repo := database.InitDB("products.db")
	defer repo.Close()

	searcher := imagesearch.NewSearcher(cfg.Search, repo)
	detector := mapper.NewDetector(mapper.BuildProviderChain(cfg))

	log.Println("Starting ShelfScraper API server...")
	server.Start(repo, searcher, detector, cfg)
}
