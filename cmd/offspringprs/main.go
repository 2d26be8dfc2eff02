// offspringprs estimates the distribution of a polygenic trait probability
// among the possible children of two imported genomes. The density is written
// to STDOUT as TSV; a text histogram goes to STDERR.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/carbocation/pgsinherit"
	"github.com/carbocation/pgsinherit/analysis"
	"github.com/carbocation/pgsinherit/compileinfo"
	"github.com/carbocation/pgsinherit/config"
	"github.com/carbocation/pgsinherit/genotype"
	"github.com/carbocation/pgsinherit/inherit"
	"github.com/carbocation/pgsinherit/modelstore"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	compileinfo.PrintToStdErr()

	defer STDOUT.Flush()

	var (
		pgsID      string
		parentA    string
		parentB    string
		trials     int
		buckets    int
		workers    int
		seed       int64
		pngPath    string
		checkSeg   bool
		dbPath     string
		configPath string
	)
	flag.StringVar(&pgsID, "pgs", "", "Id of a registered polygenic score, e.g. PGS000001")
	flag.StringVar(&parentA, "parent-a", "", "Genome id of the first parent")
	flag.StringVar(&parentB, "parent-b", "", "Genome id of the second parent")
	flag.IntVar(&trials, "trials", 0, "Optional: number of simulated children. Overrides the config file (default 20000).")
	flag.IntVar(&buckets, "buckets", 0, "Optional: number of histogram buckets. Overrides the config file (default 20).")
	flag.IntVar(&workers, "workers", 0, "Optional: number of simulation workers. Overrides the config file (default: number of CPUs).")
	flag.Int64Var(&seed, "seed", 0, "Optional: nonzero seed for a reproducible simulation")
	flag.StringVar(&pngPath, "png", "", "Optional: path to write a bar chart of the density as PNG")
	flag.BoolVar(&checkSeg, "check-segregation", false, "Optional: test the simulated children against Mendelian ratios at every varying marker")
	flag.StringVar(&dbPath, "db", "", "Path to the SQLite database. Overrides the config file.")
	flag.StringVar(&configPath, "config", "", "Optional: path to a TOML config file")
	flag.Parse()

	if pgsID == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --pgs")
	}

	if parentA == "" || parentB == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --parent-a and --parent-b")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}
	if trials > 0 {
		cfg.Trials = trials
	}
	if buckets > 0 {
		cfg.Buckets = buckets
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	db, err := pgsinherit.OpenSQLite(cfg.Database)
	if err != nil {
		log.Fatalln(err)
	}
	defer db.Close()

	models, err := modelstore.NewSQLite(db)
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

	runConfig := analysis.ConfigFrom(cfg)
	runConfig.Verbose = true
	runConfig.KeepProbabilities = true
	runConfig.CheckSegregation = checkSeg

	runner := &analysis.Runner{
		Models:    models,
		Genotypes: resolver,
		Config:    runConfig,
		Progress: func(s analysis.Stage) {
			log.Println("Stage:", s)
		},
	}

	// Ctrl-C abandons the analysis
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := runner.Run(ctx, analysis.Request{ModelID: pgsID, ParentA: parentA, ParentB: parentB})
	if err != nil {
		log.Fatalln(err)
	}

	log.Printf("%s: %s has probability %.4f and %s has probability %.4f\n", res.ModelID, res.ParentA, res.ParentAProbability, res.ParentB, res.ParentBProbability)
	log.Printf("Children: mean %.4f, sd %.4f, 5th-95th percentile %.4f-%.4f\n", res.Summary.Mean, res.Summary.StdDev, res.Summary.P05, res.Summary.P95)

	if err := printHistogram(os.Stderr, res.Probabilities, len(res.PDF)); err != nil {
		log.Fatalln(err)
	}

	if err := writeTSV(STDOUT, res.PDF); err != nil {
		log.Fatalln(err)
	}

	if checkSeg {
		printSegregation(os.Stderr, res.Segregation)
	}

	if pngPath != "" {
		f, err := os.Create(pngPath)
		if err != nil {
			log.Fatalln(err)
		}
		title := fmt.Sprintf("%s: children of %s and %s", res.ModelID, res.ParentA, res.ParentB)
		if err := writePNG(f, title, res.PDF); err != nil {
			f.Close()
			log.Fatalln(err)
		}
		if err := f.Close(); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote", pngPath)
	}

	if cfg.Seed == 0 {
		log.Println("Random seed used; pass --seed to reproduce a run")
	} else {
		log.Printf("Seed %d (%d trials per random stream)\n", cfg.Seed, inherit.ChunkSize)
	}
}
