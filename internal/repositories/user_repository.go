package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the identity lookups notices depend on
type UserRepository interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	FindIDsByAudience(ctx context.Context, audience models.TargetAudience) ([]uint, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateUserErr(err)
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, translateUserErr(err)
	}
	return &user, nil
}

// FindIDsByAudience returns the users explicitly listed plus those matching every
// role, department and year level restriction. An empty audience selects everyone.
func (r *PostgresUserRepository) FindIDsByAudience(ctx context.Context, audience models.TargetAudience) ([]uint, error) {
	hasFilters := len(audience.Roles) > 0 || len(audience.Departments) > 0 || len(audience.YearLevels) > 0

	var ids []uint
	if hasFilters || len(audience.Users) == 0 {
		tx := r.db.WithContext(ctx).Model(&models.User{})
		if len(audience.Roles) > 0 {
			tx = tx.Where("role IN ?", audience.Roles)
		}
		if len(audience.Departments) > 0 {
			tx = tx.Where("department IN ?", audience.Departments)
		}
		if len(audience.YearLevels) > 0 {
			tx = tx.Where("year_level IN ?", audience.YearLevels)
		}
		if err := tx.Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
	}
	return mergeIDs(ids, audience.Users), nil
}

func mergeIDs(lists ...[]uint) []uint {
	seen := make(map[uint]struct{})
	var out []uint
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func translateUserErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
