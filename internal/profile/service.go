package profile

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
)

const maxListResults = 50

// Service 负责开发者与公司资料的读写。
type Service struct {
	db *gorm.DB
}

// NewService 构造资料服务。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Status 汇总账号的资料状态，供前端决定引导步骤。
type Status struct {
	Role       database.Role `json:"role"`
	HasProfile bool          `json:"has_profile"`
	Completion int           `json:"profile_completion"`
	NextStep   string        `json:"next_step"`
}

// StatusFor 返回用户的资料状态。公司账号以其所属公司的资料计算。
func (s *Service) StatusFor(ctx context.Context, user database.User) (Status, error) {
	status := Status{Role: user.Role}
	switch user.Role {
	case database.RoleDeveloper:
		p, err := s.findDeveloper(ctx, user.ID)
		if err != nil {
			return status, err
		}
		status.HasProfile = p != nil
		status.Completion, status.NextStep = DeveloperCompletion(p)
	case database.RoleCompany:
		c, err := s.findCompanyForUser(ctx, user.ID)
		if err != nil {
			return status, err
		}
		status.HasProfile = c != nil
		status.Completion, status.NextStep = CompanyCompletion(c)
	default:
		return status, errcode.Validationf("unknown role %q", user.Role)
	}
	return status, nil
}

// LoadUser 读取账号，不存在时返回 NotFound。
func LoadUser(ctx context.Context, db *gorm.DB, userID string) (database.User, error) {
	var user database.User
	if err := db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, errcode.NotFound("user not found")
		}
		return user, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) findDeveloper(ctx context.Context, userID string) (*database.DeveloperProfile, error) {
	var p database.DeveloperProfile
	err := s.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load developer profile: %w", err)
	}
	return &p, nil
}

func (s *Service) findCompanyForUser(ctx context.Context, userID string) (*database.CompanyProfile, error) {
	member, err := MembershipOf(ctx, s.db, userID)
	if err != nil || member == nil {
		return nil, err
	}
	var c database.CompanyProfile
	if err := s.db.WithContext(ctx).First(&c, "id = ?", member.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load company: %w", err)
	}
	return &c, nil
}

// MembershipOf 返回用户最早加入的公司成员关系，没有时返回 nil。
func MembershipOf(ctx context.Context, db *gorm.DB, userID string) (*database.CompanyMember, error) {
	var m database.CompanyMember
	err := db.WithContext(ctx).Where("user_id = ?", userID).Order("joined_at ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return &m, nil
}

// CompanyIDsOf 返回用户所属的全部公司 ID。
func CompanyIDsOf(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var ids []string
	if err := db.WithContext(ctx).Model(&database.CompanyMember{}).
		Where("user_id = ?", userID).
		Pluck("company_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load company ids: %w", err)
	}
	return ids, nil
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
