package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"katalog/internal/models"
)

// GormRepository is a GORM implementation of Repository for any entity type
// embedding models.Model. P is the pointer form of T and carries the
// models.Entity capability, so the repository can stamp timestamps and flip
// the soft-delete flag without knowing the concrete type.
type GormRepository[T any, P interface {
	*T
	models.Entity
}] struct {
	db *gorm.DB
}

// NewGormRepository creates a repository bound to one entity type, e.g.
//
//	products := repositories.NewGormRepository[models.Product](db)
func NewGormRepository[T any, P interface {
	*T
	models.Entity
}](db *gorm.DB) *GormRepository[T, P] {
	return &GormRepository[T, P]{db: db}
}

// GetByID retrieves a single non-deleted entity by its primary key.
func (r *GormRepository[T, P]) GetByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).First(&entity, "id = ? AND is_deleted = ?", id, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity by ID %d: %w", id, err)
	}
	return &entity, nil
}

// GetAll retrieves all non-deleted entities in insertion order.
func (r *GormRepository[T, P]) GetAll(ctx context.Context) ([]T, error) {
	var entities []T
	if err := r.db.WithContext(ctx).Where("is_deleted = ?", false).Order("id").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to get all entities: %w", err)
	}
	return entities, nil
}

// GetWhere retrieves non-deleted entities matching the predicate. The
// soft-delete filter is pushed to the database; the predicate itself is
// evaluated in memory over the result set.
func (r *GormRepository[T, P]) GetWhere(ctx context.Context, predicate func(*T) bool) ([]T, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]T, 0, len(all))
	for i := range all {
		if predicate(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	return matched, nil
}

// Add persists a new entity, stamping CreatedAt with the current UTC time.
// The stored entity, including its generated id, is returned.
func (r *GormRepository[T, P]) Add(ctx context.Context, entity *T) (*T, error) {
	P(entity).Stamp(time.Now().UTC())
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, fmt.Errorf("failed to add entity: %w", err)
	}
	return entity, nil
}

// Update persists the full entity state, stamping UpdatedAt with the current
// UTC time. The UPDATE is issued explicitly rather than through Save, which
// falls back to INSERT when no row matches; here a missing or soft-deleted
// entity is ErrNotFound, never a new row.
func (r *GormRepository[T, P]) Update(ctx context.Context, entity *T) (*T, error) {
	P(entity).Touch(time.Now().UTC())
	res := r.db.WithContext(ctx).Model(entity).
		Where("id = ? AND is_deleted = ?", P(entity).EntityID(), false).
		Select("*").Updates(entity)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update entity %d: %w", P(entity).EntityID(), res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return entity, nil
}

// Delete soft-deletes the entity with the given id. A missing or already
// deleted entity is reported as false, not as an error.
func (r *GormRepository[T, P]) Delete(ctx context.Context, id uint) (bool, error) {
	entity, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	P(entity).MarkDeleted(time.Now().UTC())
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return false, fmt.Errorf("failed to delete entity %d: %w", id, err)
	}
	return true, nil
}

// Exists reports whether a non-deleted entity with the id exists.
func (r *GormRepository[T, P]) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("id = ? AND is_deleted = ?", id, false).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check entity %d: %w", id, err)
	}
	return count > 0, nil
}
