package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/config"
	"github.com/msbooks/bookshelf/consts"
	"github.com/msbooks/bookshelf/server"
	"github.com/msbooks/bookshelf/session"
	"github.com/msbooks/bookshelf/storage"
	"github.com/msbooks/bookshelf/transfer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("DEVELOPMENT") == "true" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func start(ctx context.Context, conf config.Config) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	clock, err := catalog.NewClock(conf.Timezone)
	if err != nil {
		return err
	}
	store, repo, err := storage.Open(conf, clock)
	if err != nil {
		return err
	}
	defer store.Close()

	var dataset *transfer.Dataset
	if conf.Autosave {
		dataset, err = transfer.NewDataset(conf.DataDir, store.All, repo, logger)
		if err != nil {
			return err
		}
		defer dataset.Wait()
	}

	gin.SetMode(gin.ReleaseMode)
	err = server.Run(ctx, conf.Addr, server.Options{
		Store:           store,
		Marks:           session.NewMarks(conf.SessionTTL),
		Dataset:         dataset,
		Logger:          logger,
		Password:        conf.Password,
		Backend:         string(conf.Backend),
		SuggestionLimit: conf.SuggestionLimit,
		PageLimit:       conf.PageLimit,
	})
	if err != nil {
		logger.Error("Server run failed", zap.Error(err))
	}
	return err
}

func usage(flagSet *flag.FlagSet) string {
	oldOutput := flagSet.Output()
	buf := bytes.NewBuffer(nil)
	flagSet.SetOutput(buf)
	flagSet.Usage()
	flagSet.SetOutput(oldOutput)
	return buf.String()
}

// parseArgs loads the config file and applies flag overrides on top of it
func parseArgs(args []string) (conf config.Config, done bool, usageErr bool, err error) {
	flagSet := flag.NewFlagSet("bookshelf", flag.ContinueOnError)
	configFile := flagSet.String("config", "", "Path to a YAML config file")
	addr := flagSet.String("addr", "", "Sets the address the server listens on. Defaults to :8080")
	dataDir := flagSet.String("data", "", "Path to the data folder. Overrides data_dir")
	backend := flagSet.String("backend", "", "Storage backend, folder or sqlite. Overrides backend")
	requestVersion := flagSet.Bool("version", false, "Print the version and exit")
	if err := flagSet.Parse(args); err != nil {
		return conf, false, true, err
	}
	if *requestVersion {
		fmt.Println(consts.Version)
		return conf, true, false, nil
	}
	conf, err = config.Load(*configFile)
	if err != nil {
		return conf, false, false, err
	}
	if *addr != "" {
		conf.Addr = *addr
	}
	if *dataDir != "" {
		conf.DataDir = *dataDir
	}
	if *backend != "" {
		conf.Backend = config.Backend(*backend)
	}
	if err := conf.Validate(); err != nil {
		return conf, false, true, errors.Errorf("Invalid configuration:\n%s\n%s", err.Error(), usage(flagSet))
	}
	return conf, false, false, nil
}

func handleErrors(ctx context.Context) (usageErr bool, err error) {
	conf, done, usageErr, err := parseArgs(os.Args[1:])
	if done || err != nil {
		return usageErr, err
	}
	return false, start(ctx, conf)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	usageErr, err := handleErrors(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if usageErr {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
