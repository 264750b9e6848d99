// histdump prints the content of a history database the way the program
// sees it. History is a plain SQLite file so any sqlite shell works too,
// this tool just saves typing the queries and keeps the ordering identical
// to the history command.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"docmd/store"
)

func main() {
	asJSON := flag.Bool("json", false, "print records as JSON")
	limit := flag.Int("limit", 0, "print at most N records, 0 for all")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: histdump [-json] [-limit N] <history.db>\n\n")
		fmt.Fprintf(os.Stderr, "Prints documents recorded in a history database, most recently touched first.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	defer func(startedAt time.Time) {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", time.Since(startedAt))
	}(time.Now())

	// Open would create a fresh database here, check the file first.
	if _, err := os.Stat(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	h, err := store.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	defer h.Close()

	recs, err := h.List(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list records: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal records: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPULLS\tPUSHES\tLAST PULLED\tLAST PUSHED")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", r.ID, r.Name, r.Pulls, r.Pushes, r.LastPulled, r.LastPushed)
	}
	w.Flush()

	fmt.Fprintf(os.Stderr, "%d record(s)\n", len(recs))
}
