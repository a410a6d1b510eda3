package transfer

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/vcs"
	fileAtomic "github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	// ExportDir is the data folder subdirectory holding autosaved copies of the catalog
	ExportDir = "export"
	csvFile   = "books.csv"
	jsonFile  = "books.json"
)

// Dataset keeps CSV and JSON copies of the catalog in the data folder, rewritten after every change
type Dataset struct {
	dir    string
	source func() ([]catalog.Record, error)
	repo   vcs.Repository
	logger *zap.Logger
	wg     sync.WaitGroup

	saving   *atomic.Bool
	pending  *atomic.Bool
	lastErr  *atomic.Error
	lastSave *atomic.Time
	saves    *atomic.Int64
}

// DatasetStatus reports the autosave state
type DatasetStatus struct {
	Dir       string
	Saving    bool
	Saves     int64
	LastSave  time.Time
	LastError string `json:",omitempty"`
}

// NewDataset autosaves records from 'source' into 'dataDir'. If 'repo' is not nil, each save is also committed.
func NewDataset(dataDir string, source func() ([]catalog.Record, error), repo vcs.Repository, logger *zap.Logger) (*Dataset, error) {
	dir := filepath.Join(dataDir, ExportDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	return &Dataset{
		dir:      dir,
		source:   source,
		repo:     repo,
		logger:   logger,
		saving:   atomic.NewBool(false),
		pending:  atomic.NewBool(false),
		lastErr:  atomic.NewError(nil),
		lastSave: atomic.NewTime(time.Time{}),
		saves:    atomic.NewInt64(0),
	}, nil
}

// Save asynchronously writes the current catalog. Saves requested while one is running are coalesced into one more save.
func (d *Dataset) Save() {
	d.pending.Store(true)
	if !d.saving.CompareAndSwap(false, true) {
		// save already running, it will pick up the pending request
		return
	}
	d.wg.Add(1)
	go d.run()
}

func (d *Dataset) run() {
	defer d.wg.Done()
	for {
		for d.pending.Swap(false) {
			d.stopSave(d.SaveNow())
		}
		d.saving.Store(false)
		if !d.pending.Load() || !d.saving.CompareAndSwap(false, true) {
			return
		}
	}
}

func (d *Dataset) stopSave(err error) {
	d.lastErr.Store(err)
	if err != nil {
		d.logger.Error("Error saving dataset", zap.Error(err))
		return
	}
	d.lastSave.Store(time.Now())
	d.saves.Inc()
}

// Wait blocks until running saves finish
func (d *Dataset) Wait() {
	d.wg.Wait()
}

// SaveNow synchronously writes the current catalog
func (d *Dataset) SaveNow() error {
	records, err := d.source()
	if err != nil {
		return errors.Wrap(err, "Error reading catalog")
	}
	var csvBuf, jsonBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, records); err != nil {
		return err
	}
	if err := WriteJSON(&jsonBuf, records); err != nil {
		return err
	}

	csvPath, jsonPath := d.CSVPath(), d.JSONPath()
	write := func() error {
		if err := fileAtomic.WriteFile(csvPath, &csvBuf); err != nil {
			return errors.Wrap(err, "Error writing "+csvFile)
		}
		return errors.Wrap(fileAtomic.WriteFile(jsonPath, &jsonBuf), "Error writing "+jsonFile)
	}
	if d.repo == nil {
		return write()
	}
	return d.repo.CommitFiles(write, "Update dataset", csvPath, jsonPath)
}

// CSVPath returns the path of the CSV copy
func (d *Dataset) CSVPath() string {
	return filepath.Join(d.dir, csvFile)
}

// JSONPath returns the path of the JSON copy
func (d *Dataset) JSONPath() string {
	return filepath.Join(d.dir, jsonFile)
}

// Status returns whether a save is running and the outcome of the last one
func (d *Dataset) Status() DatasetStatus {
	status := DatasetStatus{
		Dir:      d.dir,
		Saving:   d.saving.Load(),
		Saves:    d.saves.Load(),
		LastSave: d.lastSave.Load(),
	}
	if err := d.lastErr.Load(); err != nil {
		status.LastError = err.Error()
	}
	return status
}
