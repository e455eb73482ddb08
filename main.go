package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"cardprice/pkg/config"
	"cardprice/pkg/identify"
)

var appCfg *config.Config

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("config: ", err)
	}
	appCfg = cfg

	// `./cardprice migrate` creates the cache schema and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.DBAutoMigrate = true
		initCache(cfg).Close()
		fmt.Println("migration completed")
		return
	}

	if err := initAuth(cfg); err != nil {
		log.Fatal("auth: ", err)
	}
	store := initCache(cfg)
	defer store.Close()

	p, err := identify.New(cfg, store)
	if err != nil {
		log.Fatal("pipeline: ", err)
	}
	identifier = p

	r := gin.Default()
	r.MaxMultipartMemory = cfg.UploadMaxBytes
	setupRoutes(r)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
