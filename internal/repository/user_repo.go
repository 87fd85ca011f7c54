package repository

import (
	"context"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error
	CountRoots(ctx context.Context) (int64, error)
	FindVisibleTo(ctx context.Context, viewer *model.User) ([]model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, classify(err, "user not found", "")
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, classify(err, "user "+id.String()+" not found", "")
	}
	return &user, nil
}

func (r *userRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("phone = ?", phone).Order("created_at ASC").First(&user).Error
	if err != nil {
		return nil, classify(err, "no user with phone "+phone, "")
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	return classify(err, "", "email or phone already registered")
}

// Update writes only the given columns.
func (r *userRepo) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return classify(res.Error, "", "phone already registered")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user %s not found", id)
	}
	return nil
}

// CountRoots counts top-role accounts that have no creator.
func (r *userRepo) CountRoots(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("role = ? AND created_by_id IS NULL", model.RolePabrik).
		Count(&count).Error
	return count, err
}

// FindVisibleTo lists the accounts below viewer. The top role sees every lower
// account; any other role sees accounts it onboarded within three hops.
func (r *userRepo) FindVisibleTo(ctx context.Context, viewer *model.User) ([]model.User, error) {
	lower := model.LowerRoles(viewer.Role)
	if len(lower) == 0 {
		return []model.User{}, nil
	}

	q := r.db.WithContext(ctx).Where("role IN ?", lower)
	if !viewer.Role.IsTop() {
		children := r.db.Model(&model.User{}).Select("id").Where("created_by_id = ?", viewer.ID)
		grandchildren := r.db.Model(&model.User{}).Select("id").Where("created_by_id IN (?)", children)
		q = q.Where("(created_by_id = ? OR created_by_id IN (?) OR created_by_id IN (?))",
			viewer.ID, children, grandchildren)
	}

	var users []model.User
	err := q.Order("created_at DESC").Find(&users).Error
	return users, err
}
