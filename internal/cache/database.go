package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/artisan/internal/models"
)

const databaseBackend = "database"

var errDatabaseStoreNotInitialised = errors.New("database store not initialised")

// DatabaseStore implements Store using the primary SQL database. It stands in
// for Redis when Redis is disabled or unreachable.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db, now: time.Now}
}

func keyColumn() clause.Column {
	return clause.Column{Name: "key"}
}

// Ping checks the underlying database connection.
func (s *DatabaseStore) Ping(ctx context.Context) error {
	if s == nil {
		return opError(databaseBackend, "ping", "", errDatabaseStoreNotInitialised)
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return opError(databaseBackend, "ping", "", err)
	}
	return opError(databaseBackend, "ping", "", sqlDB.PingContext(ensuredContext(ctx)))
}

// IncrementWithTTL atomically increments a counter for the supplied key.
func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s == nil {
		return 0, 0, opError(databaseBackend, "incr", key, errDatabaseStoreNotInitialised)
	}
	if window <= 0 {
		window = time.Minute
	}

	now := s.now()
	expiry := now.Add(window)

	var count int64
	err := s.db.WithContext(ensuredContext(ctx)).Transaction(func(tx *gorm.DB) error {
		var entry models.CacheEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(clause.Eq{Column: keyColumn(), Value: key}).
			Take(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			count = 1
			entry = models.CacheEntry{
				Key:       key,
				Value:     []byte("1"),
				ExpiresAt: expiry,
			}
			return tx.Create(&entry).Error
		}
		if err != nil {
			return err
		}

		if entry.Expired(now) {
			count = 1
			entry.ExpiresAt = expiry
		} else {
			current, _ := strconv.ParseInt(string(entry.Value), 10, 64)
			count = current + 1
		}
		entry.Value = []byte(strconv.FormatInt(count, 10))

		return tx.Save(&entry).Error
	})
	if err != nil {
		return 0, 0, opError(databaseBackend, "incr", key, err)
	}

	var stored models.CacheEntry
	if err := s.db.WithContext(ensuredContext(ctx)).Where(clause.Eq{Column: keyColumn(), Value: key}).Take(&stored).Error; err == nil {
		return count, stored.ExpiresAt.Sub(now), nil
	}
	return count, window, nil
}

// Set upserts the value for a given key with expiry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil {
		return opError(databaseBackend, "set", key, errDatabaseStoreNotInitialised)
	}

	expiry := time.Time{}
	if ttl > 0 {
		expiry = s.now().Add(ttl)
	}

	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiry,
	}

	err := s.db.WithContext(ensuredContext(ctx)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{keyColumn()},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&entry).Error
	return opError(databaseBackend, "set", key, err)
}

// Get retrieves a value by key. Expired rows read as a miss and are removed.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, opError(databaseBackend, "get", key, errDatabaseStoreNotInitialised)
	}
	ctx = ensuredContext(ctx)

	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Where(clause.Eq{Column: keyColumn(), Value: key}).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, opError(databaseBackend, "get", key, err)
	}

	if entry.Expired(s.now()) {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return opError(databaseBackend, "del", "", errDatabaseStoreNotInitialised)
	}
	if len(keys) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		values = append(values, key)
	}

	err := s.db.WithContext(ensuredContext(ctx)).
		Where(clause.IN{Column: keyColumn(), Values: values}).
		Delete(&models.CacheEntry{}).Error
	return opError(databaseBackend, "del", "", err)
}

// PurgeExpired deletes rows whose expiry is before now and returns how many
// were removed.
func (s *DatabaseStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if s == nil {
		return 0, errDatabaseStoreNotInitialised
	}
	result := s.db.WithContext(ensuredContext(ctx)).
		Where("expires_at > ? AND expires_at < ?", time.Time{}, now).
		Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}
