// Command report prints per-match summaries of recorded decision batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/brensch/lantern/report"
)

func main() {
	roots := flag.String("roots", getEnvOrDefault("LANTERN_RECORD_DIR", "data"), "Comma-separated directories holding parquet batches")
	timeout := flag.Duration("timeout", 2*time.Minute, "Query timeout")
	listen := flag.String("listen", getEnvOrDefault("LANTERN_REPORT_LISTEN", ""), "Serve the JSON API on this address instead of printing")
	flag.Parse()

	db, err := report.Open(strings.Split(*roots, ","))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer db.Close()

	if *listen != "" {
		srv := &http.Server{
			Addr:              *listen,
			Handler:           db.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Printf("Report API listening on http://%s/api/matches", *listen)
		log.Fatal(srv.ListenAndServe())
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sums, err := db.MatchSummaries(ctx)
	if err != nil {
		log.Fatalf("summaries: %v", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tDECISIONS\tROUNDS\tBLUE\tRED\tTIMED OUT\tMEAN NODES\tMEAN US")
	var blue, red, draws int
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.1f\t%.1f\n",
			s.MatchID, s.Decisions, s.Rounds, s.ScoreBlue, s.ScoreRed, s.TimedOut, s.MeanNodes, s.MeanUs)
		switch {
		case s.ScoreBlue > s.ScoreRed:
			blue++
		case s.ScoreRed > s.ScoreBlue:
			red++
		default:
			draws++
		}
	}
	if err := tw.Flush(); err != nil {
		log.Fatalf("write: %v", err)
	}
	fmt.Printf("\n%d matches: blue ahead %d, red ahead %d, level %d\n", len(sums), blue, red, draws)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
