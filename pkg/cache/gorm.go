package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cardprice/models"
)

// Gorm is a Store on the card_lookups table of a gorm database.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps an open gorm handle. The card_lookups table must exist.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// OpenPostgres connects to dsn through the pgx stdlib driver and, when
// migrate is set, creates the card_lookups table.
func OpenPostgres(dsn string, migrate bool) (*Gorm, error) {
	if dsn == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect postgres database: %w", err)
	}
	if migrate {
		if err := db.AutoMigrate(&models.CardLookup{}); err != nil {
			// permission errors are common on managed databases; the table may already exist
			log.Printf("migration warning (card_lookups): %v", err)
		}
	}
	return NewGorm(db), nil
}

func (g *Gorm) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row models.CardLookup
	err := g.db.WithContext(ctx).Where("lookup_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %q: %w", key, err)
	}
	g.db.WithContext(ctx).Model(&row).UpdateColumn("hits", gorm.Expr("hits + 1"))
	return row.Payload, true, nil
}

func (g *Gorm) Put(ctx context.Context, key string, value []byte) error {
	row := models.CardLookup{Key: key, Payload: value}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lookup_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func (g *Gorm) Entries(ctx context.Context) ([]Entry, error) {
	var rows []models.CardLookup
	if err := g.db.WithContext(ctx).Order("lookup_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{Key: r.Key, Payload: r.Payload, Hits: r.Hits, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

func (g *Gorm) Delete(ctx context.Context, key string) (bool, error) {
	res := g.db.WithContext(ctx).Where("lookup_key = ?", key).Delete(&models.CardLookup{})
	if res.Error != nil {
		return false, fmt.Errorf("delete %q: %w", key, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (g *Gorm) Clear(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CardLookup{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear cache: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
