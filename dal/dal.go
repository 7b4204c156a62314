// Package dal provides the anniversary record store over an embedded
// SQLite database.
package dal

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/powpow420-boom/HRTversaryBot/models"
)

var (
	// ErrDuplicateIdentity is returned by Insert when a record already
	// exists for the same (user, guild) identity.
	ErrDuplicateIdentity = errors.New("anniversary already exists for this user")
	// ErrNotFound is returned when no record matches the given identity.
	ErrNotFound = errors.New("no anniversary found for this user")
)

// Store is the record store contract shared by the command handlers and
// the checker. Implementations must treat each call as a single
// statement; there are no multi-step transactions to coordinate.
type Store interface {
	Insert(ctx context.Context, rec *models.Anniversary) (uint, error)
	FindByIdentity(ctx context.Context, userID, guildID string) (*models.Anniversary, error)
	Update(ctx context.Context, userID, guildID, date, timezone, channelID string) (int64, error)
	ListAll(ctx context.Context) ([]models.Anniversary, error)
}

// InitDB opens the database and migrates the anniversary table.
func InitDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(
		sqlite.Open(dbPath),
		&gorm.Config{},
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}
	log.Println("Connected to the anniversary database.")

	if err := db.AutoMigrate(&models.Anniversary{}); err != nil {
		return nil, fmt.Errorf("migrating db: %w", err)
	}
	log.Println("Migrated database.")

	return db, nil
}

// GormStore implements Store on a gorm connection.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewStore wraps the given connection in a Store.
func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Insert saves a new anniversary record and returns its id. It fails
// with ErrDuplicateIdentity when a record already exists for the same
// (user, guild) identity.
func (s *GormStore) Insert(ctx context.Context, rec *models.Anniversary) (uint, error) {
	_, err := s.FindByIdentity(ctx, rec.UserID, rec.GuildID)
	if err == nil {
		return 0, ErrDuplicateIdentity
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("inserting anniversary: %w", err)
	}
	return rec.ID, nil
}

// FindByIdentity returns the record for the given user in the given
// guild. With an empty guildID it falls back to the legacy global
// lookup: the most recently created record for the user, ties broken by
// highest id. Returns ErrNotFound when nothing matches.
func (s *GormStore) FindByIdentity(ctx context.Context, userID, guildID string) (*models.Anniversary, error) {
	var rec models.Anniversary

	q := s.db.WithContext(ctx)
	if guildID != "" {
		q = q.Where("user_id = ? AND guild_id = ?", userID, guildID)
	} else {
		q = q.Where("user_id = ?", userID).Order("id DESC")
	}

	if err := q.Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding anniversary: %w", err)
	}
	return &rec, nil
}

// Update rewrites the date, timezone and channel of the record matching
// the given identity and returns the number of changed rows. It fails
// with ErrNotFound when no record matches. An empty guildID targets the
// same single record the legacy global lookup selects, never more than
// one row.
func (s *GormStore) Update(ctx context.Context, userID, guildID, date, timezone, channelID string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Anniversary{})
	if guildID != "" {
		q = q.Where("user_id = ? AND guild_id = ?", userID, guildID)
	} else {
		rec, err := s.FindByIdentity(ctx, userID, "")
		if err != nil {
			return 0, err
		}
		q = q.Where("id = ?", rec.ID)
	}

	tx := q.Updates(map[string]interface{}{
		"anniversary_date": date,
		"timezone":         timezone,
		"channel_id":       channelID,
	})
	if tx.Error != nil {
		return 0, fmt.Errorf("updating anniversary: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return tx.RowsAffected, nil
}

// ListAll returns every stored record. A full scan is fine here: volume
// is bounded by community size.
func (s *GormStore) ListAll(ctx context.Context) ([]models.Anniversary, error) {
	var recs []models.Anniversary
	if err := s.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing anniversaries: %w", err)
	}
	return recs, nil
}
