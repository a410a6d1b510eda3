// Command migrate copies the catalog between the data folder and the SQLite database, keeping IDs and dates
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/config"
	"github.com/msbooks/bookshelf/storage"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flagSet := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flagSet.SetOutput(&strings.Builder{})
	configFile := flagSet.String("config", "", "Path to a YAML config file")
	dataDir := flagSet.String("data", "", "Path to the data folder. Overrides data_dir")
	sqlitePath := flagSet.String("sqlite", "", "Path to the SQLite database. Overrides sqlite_path")
	reverse := flagSet.Bool("reverse", false, "Copy from SQLite into the data folder instead")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	conf, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		conf.DataDir = *dataDir
	}
	if *sqlitePath != "" {
		conf.SQLitePath = *sqlitePath
	}
	if conf.DataDir == "" {
		return errors.New("Data directory is required, set --data or data_dir")
	}
	clock, err := catalog.NewClock(conf.Timezone)
	if err != nil {
		return err
	}

	folder, _, err := storage.OpenFolder(conf.DataDir, conf.VersionControl, clock)
	if err != nil {
		return err
	}
	defer folder.Close()
	database, err := storage.OpenSQLite(conf.DatabasePath(), clock)
	if err != nil {
		return err
	}
	defer database.Close()

	var from, to catalog.Store = folder, database
	fromName, toName := conf.DataDir, conf.DatabasePath()
	if *reverse {
		from, to = to, from
		fromName, toName = toName, fromName
	}
	count, err := migrate(from, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Copied %d records from %s to %s\n", count, fromName, toName)
	return nil
}

func migrate(from, to catalog.Store) (int, error) {
	records, err := from.All()
	if err != nil {
		return 0, errors.Wrap(err, "Failed to read source catalog")
	}
	return len(records), errors.Wrap(to.Replace(records), "Failed to write destination catalog")
}
