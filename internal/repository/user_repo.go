package repository

import (
	"context"

	"distriflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*model.User, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&u).Error
	return &u, err
}

func (r *userRepo) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND username = ? AND is_active = true", tenantID, username).
		First(&u).Error
	return &u, err
}

func (r *userRepo) List(ctx context.Context, tenantID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("username ASC").Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
