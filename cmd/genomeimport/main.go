// genomeimport stores a consumer raw genotype export (23andMe or AncestryDNA
// style, optionally compressed, local or gs://) so that it can be analyzed.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/carbocation/pgsinherit"
	"github.com/carbocation/pgsinherit/compileinfo"
	"github.com/carbocation/pgsinherit/config"
	"github.com/carbocation/pgsinherit/genotype"
)

func main() {
	compileinfo.PrintToStdErr()

	var (
		input      string
		genomeID   string
		chip       string
		delimiter  string
		dbPath     string
		configPath string
	)
	flag.StringVar(&input, "input", "", "Local or gs:// path to the raw genotype file")
	flag.StringVar(&genomeID, "genome", "", "Identifier to store the genome under")
	flag.StringVar(&chip, "chip", "", "Genotyping chip the file came from, e.g. v5. Genomes typed on the same chip share absent-marker caching.")
	flag.StringVar(&delimiter, "delimiter", "", "Optional: column delimiter. If empty, it is detected from the file.")
	flag.StringVar(&dbPath, "db", "", "Path to the SQLite database. Overrides the config file.")
	flag.StringVar(&configPath, "config", "", "Optional: path to a TOML config file")
	flag.Parse()

	if input == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --input")
	}

	if genomeID == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --genome")
	}

	if chip == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --chip")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}

	ctx := context.Background()

	var client *storage.Client
	if strings.HasPrefix(input, "gs://") {
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	var delim rune
	if delimiter != "" {
		delim = []rune(delimiter)[0]
	} else {
		delim, err = sniff(ctx, input, client)
		if err != nil {
			log.Fatalln(err)
		}
	}
	log.Printf("Reading %s with delimiter %q\n", input, delim)

	rc, err := pgsinherit.OpenMaybeCompressed(ctx, input, client)
	if err != nil {
		log.Fatalln(err)
	}
	defer rc.Close()

	db, err := pgsinherit.OpenSQLite(cfg.Database)
	if err != nil {
		log.Fatalln(err)
	}
	defer db.Close()

	store, err := genotype.NewSQLiteStore(db)
	if err != nil {
		log.Fatalln(err)
	}

	n, err := store.ImportRaw(ctx, genomeID, chip, pgsinherit.NewRawGenotypeReader(rc, delim))
	if err != nil {
		log.Fatalln(err)
	}

	log.Printf("Imported %d genotype calls for %s (chip %s) into %s\n", n, genomeID, chip, cfg.Database)
}

func sniff(ctx context.Context, input string, client *storage.Client) (rune, error) {
	rc, err := pgsinherit.OpenMaybeCompressed(ctx, input, client)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	return pgsinherit.SniffDelimiter(rc, '#')
}
