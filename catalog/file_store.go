package catalog

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/msbooks/bookshelf/plaindb"
	"github.com/pkg/errors"
)

const (
	bucketName    = "books"
	bucketVersion = "2"
)

// FileStore is a Store kept in a plaindb bucket, one JSON file in the data folder
type FileStore struct {
	mu     sync.Mutex
	db     plaindb.DB
	bucket plaindb.Bucket
	clock  Clock
}

// NewFileStore loads the books bucket from db, upgrading legacy exports in place
func NewFileStore(db plaindb.DB, clock Clock) (*FileStore, error) {
	bucket, err := db.Bucket(bucketName, bucketVersion, &bookUpgrader{})
	if err != nil {
		return nil, err
	}
	return &FileStore{
		db:     db,
		bucket: bucket,
		clock:  clock,
	}, nil
}

func formatID(id int) string {
	return strconv.FormatInt(int64(id), 10)
}

// Close closes the underlying DB
func (s *FileStore) Close() error {
	return s.db.Close()
}

func (s *FileStore) All() ([]Record, error) {
	records := make([]Record, 0, s.bucket.Len())
	var record Record
	err := s.bucket.Iter(&record, func(string) bool {
		records = append(records, record)
		return true
	})
	sort.Slice(records, func(a, b int) bool {
		return records[a].ID < records[b].ID
	})
	return records, err
}

func (s *FileStore) Get(id int) (Record, bool, error) {
	var record Record
	found, err := s.bucket.Get(formatID(id), &record)
	return record, found, err
}

func (s *FileStore) Add(record Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.All()
	if err != nil {
		return Record{}, err
	}
	record.Title = strings.TrimSpace(record.Title)
	record.ID = NextID(records)
	if err := Validate(records, record); err != nil {
		return Record{}, err
	}
	record.DateAdded = s.clock.Stamp()
	return record, s.bucket.Put(formatID(record.ID), record)
}

func (s *FileStore) Update(id int, patch Patch) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, found, err := s.Get(id)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, errors.Wrapf(ErrNotFound, "ID %d", id)
	}
	if patch.Empty() {
		return record, nil
	}
	records, err := s.All()
	if err != nil {
		return Record{}, err
	}
	record = patch.Apply(record)
	if err := Validate(records, record); err != nil {
		return Record{}, err
	}
	return record, s.bucket.Put(formatID(id), record)
}

func (s *FileStore) Remove(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, formatID(id))
	}
	return s.bucket.Delete(keys...)
}

func (s *FileStore) Replace(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]interface{}, len(records))
	for _, record := range records {
		values[formatID(record.ID)] = record
	}
	return s.bucket.Replace(values)
}

type legacyRecord struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	FileURL   string `json:"file_url"`
	DateAdded string `json:"date_added"`
	Date      string `json:"date"`
}

type bookUpgrader struct{}

func (u *bookUpgrader) Parse(dataVersion, id string, data json.RawMessage) (interface{}, error) {
	switch dataVersion {
	case "1", "2":
		var record Record
		err := json.Unmarshal(data, &record)
		return record, err
	default:
		return nil, errors.Errorf("Unknown books version: %s", dataVersion)
	}
}

func (u *bookUpgrader) Upgrade(dataVersion, id string, data interface{}) (newVersion string, newData interface{}, err error) {
	switch dataVersion {
	case "1":
		// v2 is a no-op upgrade. switched from the dashboard's array export to a dictionary
		return "2", data, nil
	}
	return dataVersion, data, nil
}

// ParseLegacy reads the dashboard's books.json export: a bare array of records, possibly with missing fields
func (u *bookUpgrader) ParseLegacy(legacyData json.RawMessage) (version string, data map[string]json.RawMessage, err error) {
	data = make(map[string]json.RawMessage)
	if len(strings.TrimSpace(string(legacyData))) == 0 {
		return bucketVersion, data, nil
	}
	var legacy []legacyRecord
	if err := json.Unmarshal(legacyData, &legacy); err != nil {
		return "", nil, err
	}

	records := make([]Record, 0, len(legacy))
	for i, item := range legacy {
		record := Record{
			ID:        item.ID,
			Title:     item.Title,
			Notes:     item.Notes,
			FileURL:   item.FileURL,
			DateAdded: item.DateAdded,
		}
		if record.ID <= 0 {
			record.ID = i + 1
		}
		if record.DateAdded == "" {
			record.DateAdded = item.Date
		}
		records = append(records, record)
	}
	records, _ = Prepare(records)
	for _, record := range records {
		data[formatID(record.ID)], err = json.Marshal(record)
		if err != nil {
			return "", nil, err
		}
	}
	return "1", data, nil
}
