// Package account manages user identities: registration, credential checks,
// password changes and activity tracking.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"skillswipe/internal/auth"
	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
)

// ErrInvalidCredentials 表示账号不存在或密码错误，调用方不应区分两者。
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// RegisterInput 是注册所需字段。
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     database.Role
}

func (in RegisterInput) normalize() (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if len(in.Username) < 3 || len(in.Username) > 64 {
		return in, errcode.Validation("username must be between 3 and 64 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return in, errcode.Validation("invalid email address")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return in, errcode.Validationf("password must be at least %d characters", auth.MinPasswordLength)
	}
	if !in.Role.Valid() {
		return in, errcode.Validationf("invalid role %q", in.Role)
	}
	return in, nil
}

// Register 创建一个 active 账号。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*database.User, error) {
	return s.create(ctx, in, false)
}

// CreateWithOneTimePassword 由管理员创建账号，首次登录后必须修改密码。
func (s *Service) CreateWithOneTimePassword(ctx context.Context, in RegisterInput) (*database.User, error) {
	return s.create(ctx, in, true)
}

func (s *Service) create(ctx context.Context, in RegisterInput, mustChange bool) (*database.User, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&database.User{}).
		Where("username = ? OR email = ?", in.Username, in.Email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return nil, errcode.Conflict("username or email already taken")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := database.User{
		Username:           in.Username,
		Email:              in.Email,
		PasswordHash:       hashed,
		Role:               in.Role,
		Status:             database.UserActive,
		MustChangePassword: mustChange,
		LastActivityAt:     s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcode.Wrap(errcode.KindConflict, "username or email already taken", err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate 以用户名或邮箱登录，成功后刷新活动时间。
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*database.User, error) {
	identifier = strings.TrimSpace(identifier)
	var user database.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.Touch(ctx, user.ID)
}

// Touch 记录一次活动；因不活跃被标记的账号会重新激活。
func (s *Service) Touch(ctx context.Context, userID string) (*database.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	updates := map[string]any{"last_activity_at": now}
	if user.Status == database.UserInactive {
		updates["status"] = database.UserActive
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("touch user: %w", err)
	}
	user.LastActivityAt = now
	if user.Status == database.UserInactive {
		user.Status = database.UserActive
	}
	return user, nil
}

// Get 读取账号。
func (s *Service) Get(ctx context.Context, userID string) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.NotFound("user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// ChangePassword 校验当前密码后更新，并清除强制改密标记。
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) (*database.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(current, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if len(next) < auth.MinPasswordLength {
		return nil, errcode.Validationf("password must be at least %d characters", auth.MinPasswordLength)
	}
	if strings.TrimSpace(next) == strings.TrimSpace(current) {
		return nil, errcode.Validation("new password must be different from current password")
	}

	hashed, err := auth.HashPassword(next)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"password_hash":        hashed,
		"must_change_password": false,
	}).Error; err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hashed
	user.MustChangePassword = false
	return user, nil
}
