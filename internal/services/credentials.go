package services

import (
	"context"
	"errors"
	"strings"

	"eventboard/internal/models"
	"eventboard/internal/utils"

	"gorm.io/gorm"
)

// CredentialStore 负责用户注册与密码校验
type CredentialStore struct {
	db *gorm.DB
}

func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Register 创建普通用户并返回其 ID。用户名已存在时返回 ErrDuplicateUsername。
func (s *CredentialStore) Register(ctx context.Context, username, password string) (uint, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, ErrEmptyCredentials
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return 0, storeErr("hash password", err)
	}

	user := models.User{
		Username: username,
		Password: hash,
		Role:     models.RoleUser,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(&user).Error
	})
	switch {
	case err == nil:
		return user.ID, nil
	case errors.Is(err, ErrDuplicateUsername), errors.Is(err, gorm.ErrDuplicatedKey):
		// 并发注册时唯一索引兜底
		return 0, ErrDuplicateUsername
	default:
		return 0, storeErr("register user", err)
	}
}

// Verify 校验用户名与密码，成功返回用户记录
func (s *CredentialStore) Verify(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, storeErr("load user", err)
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrWrongPassword
	}
	return &user, nil
}

// SetRole 修改用户角色（运维脚本/管理员使用，界面上不开放）
func (s *CredentialStore) SetRole(ctx context.Context, username, role string) error {
	if role != models.RoleAdmin && role != models.RoleUser {
		return newError(ErrValidation, "未知角色: "+role)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Update("role", role)
	if res.Error != nil {
		return storeErr("set role", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUnknownUser
	}
	return nil
}
