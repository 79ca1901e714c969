package main

import (
	"flag"
	"log"

	"recipe_community/internal/pkg/config"
	"recipe_community/pkg/database"
)

func main() {
	dir := flag.String("dir", "migrations", "migrations directory")
	down := flag.Int("down", 0, "roll back N migrations instead of applying")
	flag.Parse()

	config.LoadConfig()
	dsn := database.DSN(config.GlobalConfig.Database)

	if *down > 0 {
		if err := database.Rollback(dsn, *dir, *down); err != nil {
			log.Fatal(err)
		}
		log.Printf("Rolled back %d migration(s)", *down)
		return
	}

	if err := database.Migrate(dsn, *dir); err != nil {
		log.Fatal(err)
	}
	log.Println("Migration successful")
}
