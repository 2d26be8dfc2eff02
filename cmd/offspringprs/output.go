package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/gocarina/gocsv"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/carbocation/pgsinherit/inherit"
	"github.com/carbocation/pgsinherit/pdf"
)

const histogramWidth = 40

func printHistogram(w io.Writer, probabilities []float64, bins int) error {
	if len(probabilities) == 0 || bins <= 0 {
		return nil
	}

	hist := histogram.Hist(bins, probabilities)

	return histogram.Fprint(w, hist, histogram.Linear(histogramWidth))
}

func writeTSV(w io.Writer, buckets []pdf.Bucket) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = '\t'

	return gocsv.MarshalCSV(buckets, gocsv.NewSafeCSVWriter(csvWriter))
}

func writePNG(w io.Writer, title string, buckets []pdf.Bucket) error {
	bars := make([]chart.Value, 0, len(buckets))
	top := 0.0
	for _, b := range buckets {
		bars = append(bars, chart.Value{Value: b.Density, Label: b.Label})
		if b.Density > top {
			top = b.Density
		}
	}

	graph := chart.BarChart{
		Title: title,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		// A single bucket has no range of its own to scale against
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Width:      1024,
		Height:     512,
		BarWidth:   1024 / (len(bars) + 2),
		BarSpacing: 4,
		Bars:       bars,
	}

	return graph.Render(chart.PNG, w)
}

// printSegregation writes one line per tested marker: the child genotype
// counts, the goodness of fit P value, and the transmission P value when the
// parents share a heterozygous genotype.
func printSegregation(w io.Writer, segregation []inherit.Segregation) {
	fmt.Fprintln(w, "rsid\tcounts\tp\ttransmission_p")
	for _, seg := range segregation {
		counts := make([]string, len(seg.Genotypes))
		for i, g := range seg.Genotypes {
			counts[i] = fmt.Sprintf("%s:%.0f", g, seg.Observed[i])
		}

		transmission := "NA"
		if seg.TransmissionP.Valid {
			transmission = fmt.Sprintf("%.4g", seg.TransmissionP.Float64)
		}

		fmt.Fprintf(w, "%s\t%s\t%.4g\t%s\n", seg.RSID, strings.Join(counts, ","), seg.P, transmission)
	}
}
