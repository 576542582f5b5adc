package secboard

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const INMEMORY_STORE = ":memory:"

// SnapshotRecord is one persisted last-known-good payload per cache
// key.
type SnapshotRecord struct {
	gorm.Model

	Key       string `gorm:"uniqueIndex"`
	Payload   datatypes.JSON
	FetchedAt time.Time
}

type StoredSnapshot struct {
	Payload   []byte
	FetchedAt time.Time
}

// SnapshotStore keeps feed payloads in a local sqlite database so a
// restart while the backend is down still has real data to show.
type SnapshotStore struct {
	db       *gorm.DB
	location string
}

func OpenSnapshotStore(location string) (*SnapshotStore, error) {
	return &SnapshotStore{location: location}, nil
}

func (s *SnapshotStore) connect() (*gorm.DB, error) {
	if s.db != nil {
		return s.db, nil
	}

	db, err := gorm.Open(sqlite.Open(s.location), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open snapshot database")
	}

	if err := db.AutoMigrate(&SnapshotRecord{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate snapshot database")
	}
	s.db = db
	return db, nil
}

func (s *SnapshotStore) withTransaction(fn func(*gorm.DB) error) error {
	db, err := s.connect()
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}

// Save upserts the payload for a key.
func (s *SnapshotStore) Save(key CacheKey, payload []byte, at time.Time) error {
	return s.withTransaction(func(conn *gorm.DB) error {
		rec := SnapshotRecord{
			Key:       string(key),
			Payload:   datatypes.JSON(payload),
			FetchedAt: at,
		}
		q := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "updated_at"}),
		}).Create(&rec)
		if err := q.Error; err != nil {
			return errors.Wrap(err, "failed to save snapshot")
		}
		return nil
	})
}

func (s *SnapshotStore) Load(key CacheKey) (*StoredSnapshot, error) {
	var rec SnapshotRecord
	err := s.withTransaction(func(conn *gorm.DB) error {
		q := conn.Where("key = ?", string(key)).First(&rec)
		if err := q.Error; err != nil {
			return errors.Wrap(err, "failed to find snapshot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &StoredSnapshot{Payload: rec.Payload, FetchedAt: rec.FetchedAt}, nil
}

func (s *SnapshotStore) LoadAll() (map[CacheKey]StoredSnapshot, error) {
	var recs []SnapshotRecord
	err := s.withTransaction(func(conn *gorm.DB) error {
		if err := conn.Find(&recs).Error; err != nil {
			return errors.Wrap(err, "failed to load snapshots")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[CacheKey]StoredSnapshot, len(recs))
	for _, rec := range recs {
		out[CacheKey(rec.Key)] = StoredSnapshot{
			Payload:   rec.Payload,
			FetchedAt: rec.FetchedAt,
		}
	}
	return out, nil
}
