package main

import (
	"log"

	"cardprice/pkg/cache"
	"cardprice/pkg/config"
)

// initCache opens the lookup cache named by CACHE_DRIVER. A cache that cannot
// be opened is fatal; a cache that fails later only costs extra lookups.
func initCache(cfg *config.Config) cache.Store {
	store, err := cache.Open(cfg.Cache())
	if err != nil {
		log.Fatalf("failed to open %s cache: %v", cfg.CacheDriver, err)
	}
	log.Printf("cache driver=%s", cfg.CacheDriver)
	return store
}
