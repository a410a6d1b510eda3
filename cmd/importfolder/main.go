// Command importfolder replaces the catalog with one record per file found under a folder
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/config"
	"github.com/msbooks/bookshelf/dupes"
	"github.com/msbooks/bookshelf/storage"
	"github.com/msbooks/bookshelf/transfer"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usageText = `Usage: importfolder [flags] <folder>

Scans <folder> and REPLACES the catalog with one record per file:
title is the file name, notes the containing folder, file_url the full path.

Flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flagSet := flag.NewFlagSet("importfolder", flag.ContinueOnError)
	var usage strings.Builder
	flagSet.SetOutput(&usage)
	configFile := flagSet.String("config", "", "Path to a YAML config file")
	dataDir := flagSet.String("data", "", "Path to the data folder. Overrides data_dir")
	backend := flagSet.String("backend", "", "Storage backend, folder or sqlite. Overrides backend")
	trimPrefix := flagSet.String("trim-prefix", "", "Prefix removed from each record's notes. Defaults to the scanned folder")
	dryRun := flagSet.Bool("dry-run", false, "Print what would be imported without writing")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.Errorf("Expected exactly one folder to scan\n%s%s", usageText, flagSet.FlagUsages())
	}
	root := flagSet.Arg(0)
	if *trimPrefix == "" {
		*trimPrefix = root
	}

	conf, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		conf.DataDir = *dataDir
	}
	if *backend != "" {
		conf.Backend = config.Backend(*backend)
	}
	if conf.DataDir == "" {
		return errors.New("Data directory is required, set --data or data_dir")
	}
	clock, err := catalog.NewClock(conf.Timezone)
	if err != nil {
		return err
	}

	scanned, err := transfer.ScanFolder(root, *trimPrefix)
	if err != nil {
		return err
	}
	kept, dropped := catalog.Prepare(scanned)
	fmt.Fprintf(out, "Found %d files, %d with repeated titles\n", len(scanned), len(dropped))

	if *dryRun {
		flagged := dupes.Detect(kept, kept)
		for _, r := range kept {
			if flagged.Has(r.ID) {
				fmt.Fprintf(out, "Possible duplicate: %s (%s)\n", r.Title, r.FileURL)
			}
		}
		for _, r := range dropped {
			fmt.Fprintf(out, "Skipping repeated title: %s (%s)\n", r.Title, r.FileURL)
		}
		return nil
	}

	stamp := clock.Stamp()
	for i := range kept {
		if kept[i].DateAdded == "" {
			kept[i].DateAdded = stamp
		}
	}

	store, repo, err := storage.Open(conf, clock)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Replace(kept); err != nil {
		return errors.Wrap(err, "Failed to replace catalog")
	}
	if conf.Autosave {
		dataset, err := transfer.NewDataset(conf.DataDir, store.All, repo, zap.NewNop())
		if err != nil {
			return err
		}
		if err := dataset.SaveNow(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Imported %d records\n", len(kept))
	return nil
}
