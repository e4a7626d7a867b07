// Command fusion-eval aligns radar detections with a ground-truth track and
// scores detection-to-track association.
//
// Usage:
//
//	fusion-eval run     [flags]           align, score and write results
//	fusion-eval import  [flags]           load CSV tables into a database
//	fusion-eval migrate up|down|status    manage the database schema
//	fusion-eval version                   print build information
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/radar.fusion/internal/fusion"
	"github.com/banshee-data/radar.fusion/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "run":
		err = runCommand(args)
	case "import":
		err = importCommand(args)
	case "migrate":
		err = migrateCommand(args)
	case "version":
		fmt.Println("fusion-eval", version.String())
	case "help", "-h", "-help", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("fusion-eval %s: %v", os.Args[1], err)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: fusion-eval <command> [flags]

Commands:
  run       align ground truth to radar detections, score association, write results
  import    load detection and ground-truth CSV tables into a SQLite database
  migrate   manage the SQLite schema (up, down, status)
  version   print build information

Run 'fusion-eval <command> -h' for command flags.`)
}

// configureLogging routes the ops stream to stderr and enables the diag and
// trace streams on request.
func configureLogging(diag, trace bool) {
	w := fusion.LogWriters{Ops: os.Stderr}
	if diag {
		w.Diag = os.Stderr
	}
	if trace {
		w.Trace = os.Stderr
	}
	fusion.SetLogWriters(w)
}
