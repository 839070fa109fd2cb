// Package output renders the end-of-run training report.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ritzau/gcn-trainer/pkg/graphdata"
	"github.com/ritzau/gcn-trainer/pkg/train"
)

// PrintTrainingReport prints a nicely formatted training report with colors
func PrintTrainingReport(w io.Writer, dataset string, stats graphdata.Stats, result *train.Result) {
	// Color definitions
	bold := color.New(color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "GCN Trainer - Training Report")
	bold.Fprintln(w, "=============================")
	fmt.Fprintf(w, "Dataset: %s\n", dataset)
	fmt.Fprintf(w, "Graph: %d nodes, %d edges, %d components\n", stats.Nodes, stats.EdgePairs, stats.Components)
	if stats.Isolated > 0 {
		yellow.Fprintf(w, "Isolated nodes: %d\n", stats.Isolated)
	}
	fmt.Fprintln(w)

	// Best snapshot
	cyan.Fprintf(w, "Best model: epoch %d (valid %.2f%%)\n", result.BestEpoch, 100*result.BestValidAcc)
	fmt.Fprintln(w)

	// Per-split accuracies of the retained snapshot
	bold.Fprintln(w, "FINAL ACCURACY:")
	printAccuracy(w, "Train", result.TrainAcc)
	printAccuracy(w, "Valid", result.ValidAcc)
	printAccuracy(w, "Test", result.TestAcc)
}

// printAccuracy colors a split's accuracy by rough quality bands
func printAccuracy(w io.Writer, split string, acc float64) {
	c := color.New(color.FgGreen)
	if acc < 0.8 {
		c = color.New(color.FgYellow)
	}
	if acc < 0.5 {
		c = color.New(color.FgRed)
	}
	c.Fprintf(w, "  %-5s %.2f%%\n", split, 100*acc)
}
