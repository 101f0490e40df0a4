package schema

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// TableSchemaRecord is the persisted form of a TableDescriptor. The
// descriptor itself is stored as JSON so the record survives descriptor
// evolution without migrations.
type TableSchemaRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Spec      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TableSchemaRecord) TableName() string {
	return "table_schemas"
}

// Store persists table descriptors through gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Initialize(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&TableSchemaRecord{})
}

func (s *Store) Save(ctx context.Context, desc *TableDescriptor) error {
	spec, err := json.Marshal(desc)
	if err != nil {
		return err
	}

	var existing TableSchemaRecord
	result := s.db.WithContext(ctx).Where("name = ?", desc.Name).First(&existing)
	if result.Error == nil {
		existing.Spec = string(spec)
		return s.db.WithContext(ctx).Save(&existing).Error
	}
	if result.Error != gorm.ErrRecordNotFound {
		return result.Error
	}

	record := TableSchemaRecord{Name: desc.Name, Spec: string(spec)}
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *Store) Load(ctx context.Context) ([]*TableDescriptor, error) {
	var records []TableSchemaRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&records).Error; err != nil {
		return nil, err
	}

	descs := make([]*TableDescriptor, 0, len(records))
	for _, record := range records {
		var desc TableDescriptor
		if err := json.Unmarshal([]byte(record.Spec), &desc); err != nil {
			return nil, err
		}
		descs = append(descs, &desc)
	}
	return descs, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Where("name = ?", name).Delete(&TableSchemaRecord{}).Error
}
