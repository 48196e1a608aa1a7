package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"llmstxt-audit/pkg/assess"
	"llmstxt-audit/pkg/log"
	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/utils"
)

const (
	auditKeyPrefix   = "audit:"   // Audit metadata records
	crawlKeyPrefix   = "crawl:"   // Crawl results keyed by audit ID
	assessKeyPrefix  = "assess:"  // Assessment results keyed by audit ID
	dismissKeyPrefix = "dismiss:" // Dismissed finding IDs keyed by audit ID

	auditDBDir = "audit_db" // Subdirectory within stateDir for Badger DB files
)

// ErrNotFound is returned when a requested audit or result does not exist.
var ErrNotFound = errors.New("record not found")

// AuditRecord is the stored metadata of one audit run.
type AuditRecord struct {
	ID        string    `json:"id"`
	BaseURL   string    `json:"base_url"`
	Profile   string    `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditStore persists audit runs, crawl results, assessments, and dismissed
// findings in BadgerDB so that scores can be revisited without re-crawling.
type AuditStore struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewAuditStore opens (or creates) the audit database under stateDir.
func NewAuditStore(stateDir string, logger *logrus.Entry) (*AuditStore, error) {
	dbPath := filepath.Join(stateDir, auditDBDir)
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %v", utils.ErrFilesystem, dbPath, err)
	}

	logger.Infof("Initializing audit database at: %s", dbPath)

	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %v", utils.ErrDatabase, dbPath, err)
	}

	return &AuditStore{db: db, log: logger}, nil
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction
// conflicts. Concurrent MVCC transactions on overlapping keys can return
// badger.ErrConflict; these resolve in microseconds.
func (s *AuditStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// CreateAudit stores a new audit record and returns it with a fresh ID.
func (s *AuditStore) CreateAudit(baseURL, profileName string) (*AuditRecord, error) {
	record := &AuditRecord{
		ID:        uuid.NewString(),
		BaseURL:   baseURL,
		Profile:   profileName,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.putJSON(auditKeyPrefix+record.ID, record); err != nil {
		return nil, err
	}
	s.log.WithField("audit_id", record.ID).Info("Created audit record")
	return record, nil
}

// GetAudit loads one audit record by ID.
func (s *AuditStore) GetAudit(id string) (*AuditRecord, error) {
	var record AuditRecord
	if err := s.getJSON(auditKeyPrefix+id, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListAudits returns every stored audit record, newest first.
func (s *AuditStore) ListAudits() ([]AuditRecord, error) {
	var records []AuditRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(auditKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			errVal := it.Item().Value(func(val []byte) error {
				var record AuditRecord
				if errJSON := json.Unmarshal(val, &record); errJSON != nil {
					s.log.Warnf("Skipping undecodable audit record '%s': %v", string(it.Item().Key()), errJSON)
					return nil
				}
				records = append(records, record)
				return nil
			})
			if errVal != nil {
				return errVal
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing audits: %v", utils.ErrDatabase, err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// PutCrawl stores the crawl result for an audit.
func (s *AuditStore) PutCrawl(auditID string, result *models.CrawlResult) error {
	return s.putJSON(crawlKeyPrefix+auditID, result)
}

// GetCrawl loads the crawl result for an audit.
func (s *AuditStore) GetCrawl(auditID string) (*models.CrawlResult, error) {
	var result models.CrawlResult
	if err := s.getJSON(crawlKeyPrefix+auditID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PutAssessment stores the assessment result for an audit.
func (s *AuditStore) PutAssessment(auditID string, result *assess.AssessmentResult) error {
	return s.putJSON(assessKeyPrefix+auditID, result)
}

// GetAssessment loads the assessment result for an audit.
func (s *AuditStore) GetAssessment(auditID string) (*assess.AssessmentResult, error) {
	var result assess.AssessmentResult
	if err := s.getJSON(assessKeyPrefix+auditID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddDismissed merges finding IDs into the audit's dismissed set within a
// single transaction. Dismissals only accumulate; re-adding an existing ID
// is a no-op. Returns the resulting set.
func (s *AuditStore) AddDismissed(auditID string, findingIDs ...string) ([]string, error) {
	key := []byte(dismissKeyPrefix + auditID)
	var merged []string

	err := s.dbUpdate(func(txn *badger.Txn) error {
		existing := map[string]bool{}

		item, errGet := txn.Get(key)
		if errGet != nil && !errors.Is(errGet, badger.ErrKeyNotFound) {
			return errGet
		}
		if errGet == nil {
			errVal := item.Value(func(val []byte) error {
				var stored []string
				if errJSON := json.Unmarshal(val, &stored); errJSON != nil {
					s.log.Warnf("Resetting undecodable dismissed set for audit '%s': %v", auditID, errJSON)
					return nil
				}
				for _, id := range stored {
					existing[id] = true
				}
				return nil
			})
			if errVal != nil {
				return errVal
			}
		}

		merged = merged[:0]
		for id := range existing {
			merged = append(merged, id)
		}
		for _, id := range findingIDs {
			if !existing[id] {
				existing[id] = true
				merged = append(merged, id)
			}
		}

		data, errJSON := json.Marshal(merged)
		if errJSON != nil {
			return errJSON
		}
		return txn.SetEntry(badger.NewEntry(key, data))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: updating dismissed set for audit '%s': %v", utils.ErrDatabase, auditID, err)
	}
	return merged, nil
}

// Dismissed returns the dismissed finding IDs for an audit. A missing set is
// an empty set, not an error.
func (s *AuditStore) Dismissed(auditID string) ([]string, error) {
	var ids []string
	err := s.getJSON(dismissKeyPrefix+auditID, &ids)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *AuditStore) putJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshaling value for key '%s': %v", utils.ErrParsing, key, err)
	}
	err = s.dbUpdate(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data))
	})
	if err != nil {
		return fmt.Errorf("%w: setting key '%s': %v", utils.ErrDatabase, key, err)
	}
	return nil
}

func (s *AuditStore) getJSON(key string, out any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get([]byte(key))
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if errGet != nil {
			return errGet
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: key '%s'", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("%w: getting key '%s': %v", utils.ErrDatabase, key, err)
	}
	return nil
}
