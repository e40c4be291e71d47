package sink

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// CompiledUnit is one row of the compiled_units table.
type CompiledUnit struct {
	Name      string `gorm:"primaryKey;size:512"`
	Data      []byte
	UpdatedAt time.Time
}

func (CompiledUnit) TableName() string { return "compiled_units" }

// SQLSink stores units in a database, one upsert per unit on Close.
type SQLSink struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a sqlite database at dsn.
func OpenSQLite(dsn string) (*SQLSink, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	return NewSQLSink(db)
}

// NewSQLSink migrates the compiled_units table on db.
func NewSQLSink(db *gorm.DB) (*SQLSink, error) {
	if err := db.AutoMigrate(&CompiledUnit{}); err != nil {
		return nil, fmt.Errorf("migrate compiled_units: %w", err)
	}
	return &SQLSink{db: db}, nil
}

func (s *SQLSink) DB() *gorm.DB { return s.db }

func (s *SQLSink) Open(name string) (io.WriteCloser, error) {
	return &entry{commit: func(data []byte) error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
			}).Create(&CompiledUnit{Name: name, Data: data}).Error
		})
	}}, nil
}

func (s *SQLSink) Load(name string) ([]byte, error) {
	var row CompiledUnit
	err := s.db.Where("name = ?", name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return row.Data, nil
}

func (s *SQLSink) Names() ([]string, error) {
	var names []string
	err := s.db.Model(&CompiledUnit{}).Order("name").Pluck("name", &names).Error
	return names, err
}

// Close releases the underlying connection pool.
func (s *SQLSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
