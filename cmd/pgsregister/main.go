// pgsregister parses a polygenic score, calibrates it to a trait prevalence,
// and stores it for later analyses. Scores come from the PGS Catalog by id, or
// from a local or gs:// scoring file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/carbocation/pgsinherit"
	"github.com/carbocation/pgsinherit/compileinfo"
	"github.com/carbocation/pgsinherit/config"
	"github.com/carbocation/pgsinherit/modelstore"
	"github.com/carbocation/pgsinherit/pgs"
	"github.com/carbocation/pgsinherit/pgscatalog"
	"github.com/carbocation/pgsinherit/prsparser"
)

func main() {
	compileinfo.PrintToStdErr()

	var (
		id         string
		prevalence float64
		file       string
		layout     string
		name       string
		intercept  string
		skipIndels bool
		dbPath     string
		configPath string
	)
	flag.StringVar(&id, "id", "", "PGS Catalog score id, e.g. PGS000001. Required unless --file carries a #pgs_id header.")
	flag.Float64Var(&prevalence, "prevalence", 0, "Population prevalence of the trait, strictly between 0 and 1")
	flag.StringVar(&file, "file", "", "Optional: local or gs:// path to a (possibly compressed) scoring file. If empty, the score is downloaded from the PGS Catalog.")
	flag.StringVar(&layout, "layout", prsparser.DefaultLayout, fmt.Sprint("Layout of your scoring file. Currently, options include: ", prsparser.LayoutNames()))
	flag.StringVar(&name, "name", "", "Optional: name to store the score under")
	flag.StringVar(&intercept, "intercept", "", "Optional: use this intercept instead of deriving one from the prevalence")
	flag.BoolVar(&skipIndels, "skip-indels", false, "Optional: drop markers whose effect allele is longer than one letter instead of failing")
	flag.StringVar(&dbPath, "db", "", "Path to the SQLite database. Overrides the config file.")
	flag.StringVar(&configPath, "config", "", "Optional: path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}

	if prevalence <= 0 || prevalence >= 1 {
		flag.PrintDefaults()
		log.Fatalln("Please provide --prevalence")
	}

	if id == "" && file == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --id or --file")
	}

	ctx := context.Background()

	var model *pgs.Model
	if file != "" {
		model, err = loadFile(ctx, file, layout, prevalence, skipIndels)
	} else {
		catalog := pgscatalog.New(cfg.CatalogURL)
		catalog.SkipIndels = skipIndels
		model, err = catalog.Model(ctx, id, prevalence)
	}
	if err != nil {
		log.Fatalln(err)
	}

	if id != "" {
		model.ID = id
	}
	if model.ID == "" {
		log.Fatalln("The scoring file has no #pgs_id header. Please provide --id")
	}
	if name != "" {
		model.Name = name
	}

	if intercept != "" {
		x, err := strconv.ParseFloat(intercept, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			log.Fatalf("--intercept %q is not a finite number\n", intercept)
		}
		model = model.WithIntercept(x)
	}

	db, err := pgsinherit.OpenSQLite(cfg.Database)
	if err != nil {
		log.Fatalln(err)
	}
	defer db.Close()

	store, err := modelstore.NewSQLite(db)
	if err != nil {
		log.Fatalln(err)
	}

	if err := store.Put(ctx, model); err != nil {
		log.Fatalln(err)
	}

	log.Printf("Stored %s (%s) with %d markers and intercept %.6f in %s\n", model.ID, model.Name, len(model.Markers), model.Intercept, cfg.Database)
	for i, m := range model.Markers {
		if i >= 5 {
			break
		}
		log.Printf("Marker %d: %+v\n", i+1, m)
	}
}

func loadFile(ctx context.Context, path, layout string, prevalence float64, skipIndels bool) (*pgs.Model, error) {
	l, exists := prsparser.Layouts[layout]
	if !exists {
		return nil, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", layout, prsparser.LayoutNames())
	}

	var client *storage.Client
	if strings.HasPrefix(path, "gs://") {
		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		defer client.Close()
	}

	rc, err := pgsinherit.OpenMaybeCompressed(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return pgs.Loader{Layout: l, SkipIndels: skipIndels}.Load(rc, prevalence)
}
