package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	inChunk     = 500 // limit zmiennych w IN (...)
	insertChunk = 100
)

// Store to dostęp do tabel katalogu. Każde zapytanie filtruje po user_id.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func (s *Store) CategoriesByXMLIDs(ctx context.Context, user string, ids []string) ([]Category, error) {
	var out []Category
	err := eachChunk(ids, func(part []string) error {
		var rows []Category
		if err := s.db.WithContext(ctx).
			Where("user_id = ? AND xml_id IN ?", user, part).
			Find(&rows).Error; err != nil {
			return err
		}
		out = append(out, rows...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return out, nil
}

func (s *Store) ProductsByXMLIDs(ctx context.Context, user string, ids []string) ([]Product, error) {
	var out []Product
	err := eachChunk(ids, func(part []string) error {
		var rows []Product
		if err := s.db.WithContext(ctx).
			Where("user_id = ? AND xml_id IN ?", user, part).
			Find(&rows).Error; err != nil {
			return err
		}
		out = append(out, rows...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return out, nil
}

func (s *Store) AttributesByNames(ctx context.Context, user string, names []string) ([]ProductAttribute, error) {
	var out []ProductAttribute
	err := eachChunk(names, func(part []string) error {
		var rows []ProductAttribute
		if err := s.db.WithContext(ctx).
			Where("user_id = ? AND name IN ?", user, part).
			Find(&rows).Error; err != nil {
			return err
		}
		out = append(out, rows...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("select product_attributes: %w", err)
	}
	return out, nil
}

func (s *Store) InsertCategories(ctx context.Context, rows []Category) ([]Category, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&rows, insertChunk).Error; err != nil {
		return nil, fmt.Errorf("insert categories: %w", err)
	}
	return rows, nil
}

// UpsertCategories nadpisuje istniejące wiersze (ID ustawione przez planner).
func (s *Store) UpsertCategories(ctx context.Context, rows []Category) ([]Category, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "xml_url", "updated_at"}),
	}).CreateInBatches(&rows, insertChunk).Error; err != nil {
		return nil, fmt.Errorf("upsert categories: %w", err)
	}
	return rows, nil
}

func (s *Store) InsertProducts(ctx context.Context, rows []Product) ([]Product, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&rows, insertChunk).Error; err != nil {
		return nil, fmt.Errorf("insert products: %w", err)
	}
	return rows, nil
}

func (s *Store) UpsertProducts(ctx context.Context, rows []Product) ([]Product, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category_xml_id", "category_id", "title", "description", "image_url",
			"price", "available", "brand", "product_link", "xml_url", "updated_at",
		}),
	}).CreateInBatches(&rows, insertChunk).Error; err != nil {
		return nil, fmt.Errorf("upsert products: %w", err)
	}
	return rows, nil
}

// InsertAttributes pomija wartości, które tenant już ma (user_id, name).
// ID w zwróconych wierszach nie są wiarygodne przy konfliktach, stąd
// późniejszy AttributesByNames.
func (s *Store) InsertAttributes(ctx context.Context, rows []ProductAttribute) ([]ProductAttribute, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoNothing: true,
	}).CreateInBatches(&rows, insertChunk).Error; err != nil {
		return nil, fmt.Errorf("insert product_attributes: %w", err)
	}
	return rows, nil
}

// InsertConnections: duplikat attribute_product_hash jest pomijany.
func (s *Store) InsertConnections(ctx context.Context, rows []AttributeProductConnection) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attribute_product_hash"}},
		DoNothing: true,
	}).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert attribute_product_connections: %w", err)
	}
	return nil
}

func (s *Store) CreateRun(ctx context.Context, run *ImportRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *Store) FinishRun(ctx context.Context, run *ImportRun) error {
	return s.db.WithContext(ctx).Save(run).Error
}

func (s *Store) ListRuns(ctx context.Context, user string, limit int) ([]ImportRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []ImportRun
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", user).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("select import_runs: %w", err)
	}
	return runs, nil
}

func eachChunk(ids []string, fn func([]string) error) error {
	for start := 0; start < len(ids); start += inChunk {
		end := min(start+inChunk, len(ids))
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}
