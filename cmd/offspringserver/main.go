// offspringserver serves offspring analyses over HTTP, against genomes
// imported with genomeimport and models registered with pgsregister or
// through POST /api/analysis.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/carbocation/pgsinherit"
	"github.com/carbocation/pgsinherit/analysis"
	"github.com/carbocation/pgsinherit/compileinfo"
	"github.com/carbocation/pgsinherit/config"
	"github.com/carbocation/pgsinherit/genotype"
	"github.com/carbocation/pgsinherit/modelstore"
	"github.com/carbocation/pgsinherit/pgscatalog"
)

func main() {
	compileinfo.PrintToStdErr()

	errors := make(chan error, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGUSR1,
	)

	var (
		configPath string
		listen     string
		dbPath     string
	)
	flag.StringVar(&configPath, "config", "", "Optional: path to a TOML config file")
	flag.StringVar(&listen, "listen", "", "Optional: address to listen on. Overrides the config file (default :8080).")
	flag.StringVar(&dbPath, "db", "", "Optional: path to the SQLite database. Overrides the config file.")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}

	db, err := pgsinherit.OpenSQLite(cfg.Database)
	if err != nil {
		log.Fatalln(err)
	}
	defer db.Close()

	sqliteModels, err := modelstore.NewSQLite(db)
	if err != nil {
		log.Fatalln(err)
	}
	models, err := modelstore.NewCache(sqliteModels, cfg.ModelCacheSize)
	if err != nil {
		log.Fatalln(err)
	}

	genomes, err := genotype.NewSQLiteStore(db)
	if err != nil {
		log.Fatalln(err)
	}
	resolver, err := genotype.NewCachingResolver(genomes, genomes, cfg.AbsentCacheSize)
	if err != nil {
		log.Fatalln(err)
	}

	catalog := pgscatalog.New(cfg.CatalogURL)
	catalog.SkipIndels = cfg.SkipIndels

	h := &handler{
		runner: &analysis.Runner{
			Models:    models,
			Genotypes: resolver,
			Config:    analysis.ConfigFrom(cfg),
		},
		models:  models,
		catalog: catalog,
		lister:  sqliteModels,
	}

	go func() {
		log.Println("Starting HTTP server on", cfg.Listen)
		if err := http.ListenAndServe(cfg.Listen, router(h)); err != nil {
			errors <- err
		}
	}()

Outer:
	for {
		select {
		case sigl := <-sig:
			if sigl == syscall.SIGUSR1 {
				log.Println("There are", runtime.NumGoroutine(), "goroutines running")
				continue
			}

			// By default, exit
			log.Printf("Exit: %s\n", sigl.String())
			break Outer

		case err := <-errors:
			log.Println("Exiting due to error", err)
			os.Exit(1)
		}
	}
}
