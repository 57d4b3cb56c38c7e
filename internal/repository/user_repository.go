package repository

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.DB)
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db(ctx).First(&user, id).Error; err != nil {
		return nil, util.WrapNotFound(err, "user", id)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, util.WrapNotFound(err, "user", email)
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db(ctx).Model(&model.User{}).Count(&total).Error
	return total, err
}
