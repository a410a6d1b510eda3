// Package config loads the server's YAML configuration
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/msbooks/bookshelf/catalog"
	sErrors "github.com/msbooks/bookshelf/errors"
	"github.com/msbooks/bookshelf/redactor"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PasswordEnv overrides the configured password when set
const PasswordEnv = "BOOKSHELF_PASSWORD"

// Backend selects where records are stored
type Backend string

const (
	// FolderBackend stores records as a JSON bucket in the data folder
	FolderBackend Backend = "folder"
	// SQLiteBackend stores records in a SQLite database
	SQLiteBackend Backend = "sqlite"
)

// Config is the server configuration
type Config struct {
	Addr            string          `yaml:"addr"`
	DataDir         string          `yaml:"data_dir"`
	Backend         Backend         `yaml:"backend"`
	SQLitePath      string          `yaml:"sqlite_path"`
	VersionControl  bool            `yaml:"version_control"`
	Password        redactor.String `yaml:"password"`
	Timezone        string          `yaml:"timezone"`
	SessionTTL      time.Duration   `yaml:"session_ttl"`
	SuggestionLimit int             `yaml:"suggestion_limit"`
	PageLimit       int             `yaml:"page_limit"`
	Autosave        bool            `yaml:"autosave"`
}

// Default returns the configuration used for any field missing from the file
func Default() Config {
	return Config{
		Addr:            ":8080",
		Backend:         FolderBackend,
		Timezone:        catalog.DefaultLocation,
		SessionTTL:      12 * time.Hour,
		SuggestionLimit: 50,
		PageLimit:       500,
		Autosave:        true,
	}
}

// Load reads the YAML file at 'path' over the defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "Error reading config")
	}
	conf, err := Parse(data)
	return conf, errors.Wrapf(err, "Error parsing config %q", path)
}

// Parse decodes YAML over the defaults, then applies environment overrides
func Parse(data []byte) (Config, error) {
	conf := Default()
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return Config{}, err
	}
	if password, ok := os.LookupEnv(PasswordEnv); ok {
		conf.Password = redactor.String(password)
	}
	conf.Password = redactor.String(strings.TrimSpace(string(conf.Password)))
	return conf, nil
}

// DatabasePath returns the SQLite file path, defaulting to books.db in the data folder
func (c Config) DatabasePath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "books.db")
}

// Validate returns every problem with the configuration at once
func (c Config) Validate() error {
	var errs sErrors.Errors
	errs.ErrIf(c.Addr == "", "Listen address is required")
	errs.ErrIf(c.DataDir == "", "Data directory is required")
	errs.ErrIf(c.Backend != FolderBackend && c.Backend != SQLiteBackend, "Unknown backend %q, must be %q or %q", c.Backend, FolderBackend, SQLiteBackend)
	errs.ErrIf(c.Password == "", "Password is required, set it in the config file or with %s", PasswordEnv)
	errs.ErrIf(c.SessionTTL <= 0, "Session TTL must be positive")
	errs.ErrIf(c.SuggestionLimit <= 0, "Suggestion limit must be positive")
	errs.ErrIf(c.PageLimit <= 0, "Page limit must be positive")
	if _, err := catalog.NewClock(c.Timezone); err != nil {
		errs.AddErr(err)
	}
	return errs.ErrOrNil()
}
