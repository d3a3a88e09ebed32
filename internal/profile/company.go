package profile

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
)

// CompanyInput 是创建或部分更新公司资料的请求体。
type CompanyInput struct {
	Name        *string `json:"name"`
	About       *string `json:"about"`
	Website     *string `json:"website"`
	Location    *string `json:"location"`
	LinkedInURL *string `json:"linkedin_url"`
}

func (in CompanyInput) applyTo(c *database.CompanyProfile) {
	setString(&c.Name, in.Name)
	setString(&c.About, in.About)
	setString(&c.Website, in.Website)
	setString(&c.Location, in.Location)
	setString(&c.LinkedInURL, in.LinkedInURL)
}

func validateCompany(c *database.CompanyProfile) error {
	if len([]rune(c.Name)) < minNameLength {
		return errcode.Validationf("company name must be at least %d characters long", minNameLength)
	}
	if c.Website != "" {
		u, err := url.Parse(c.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errcode.Validation("website must be a valid http(s) URL")
		}
	}
	if c.LinkedInURL != "" && !strings.Contains(strings.ToLower(c.LinkedInURL), "linkedin.com") {
		return errcode.Validation("linkedin_url must be a LinkedIn URL")
	}
	return nil
}

// CreateCompany 创建公司资料，创建者自动成为 admin 成员。
func (s *Service) CreateCompany(ctx context.Context, userID string, in CompanyInput) (*database.CompanyProfile, error) {
	user, err := LoadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != database.RoleCompany {
		return nil, errcode.Permission("only company accounts can create a company profile")
	}

	member, err := MembershipOf(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		return nil, errcode.Conflict("you are already a member of a company")
	}

	c := database.CompanyProfile{CreatedByID: userID}
	in.applyTo(&c)
	if err := validateCompany(&c); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("create company: %w", err)
		}
		admin := database.CompanyMember{UserID: userID, CompanyID: c.ID, Role: database.MemberAdmin}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("create admin membership: %w", err)
		}
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcode.Wrap(errcode.KindConflict, "you are already a member of a company", err)
		}
		return nil, err
	}
	return &c, nil
}

// CompanyForUser 返回账号所属公司的资料。
func (s *Service) CompanyForUser(ctx context.Context, userID string) (*database.CompanyProfile, error) {
	c, err := s.findCompanyForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errcode.NotFound("company profile not found")
	}
	return c, nil
}

// managedCompany 返回 actor 有管理权限的公司。
func (s *Service) managedCompany(ctx context.Context, actorID string) (*database.CompanyProfile, error) {
	member, err := MembershipOf(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errcode.NotFound("company profile not found")
	}
	if !member.Role.CanManage() {
		return nil, errcode.Permission("only admin or hr members can modify the company profile")
	}
	return s.GetCompany(ctx, member.CompanyID)
}

// UpdateCompany 部分更新公司资料，仅 admin/hr 可操作。
func (s *Service) UpdateCompany(ctx context.Context, actorID string, in CompanyInput) (*database.CompanyProfile, error) {
	c, err := s.managedCompany(ctx, actorID)
	if err != nil {
		return nil, err
	}
	in.applyTo(c)
	if err := validateCompany(c); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Omit("CreatedBy", "Members").Save(c).Error; err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

// SetCompanyLogo 记录公司 Logo 对象键，返回被替换的旧键。
func (s *Service) SetCompanyLogo(ctx context.Context, actorID, objectKey string) (string, error) {
	c, err := s.managedCompany(ctx, actorID)
	if err != nil {
		return "", err
	}
	previous := c.LogoObjectKey
	if err := s.db.WithContext(ctx).Model(c).Update("logo_object_key", objectKey).Error; err != nil {
		return "", fmt.Errorf("update logo: %w", err)
	}
	return previous, nil
}

// GetCompany 按 ID 读取公司资料。
func (s *Service) GetCompany(ctx context.Context, companyID string) (*database.CompanyProfile, error) {
	var c database.CompanyProfile
	if err := s.db.WithContext(ctx).First(&c, "id = ?", companyID).Error; err != nil {
		if isNotFound(err) {
			return nil, errcode.NotFound("company profile not found")
		}
		return nil, fmt.Errorf("load company: %w", err)
	}
	return &c, nil
}

// ListCompanies 列出除 actor 所属公司以外的公司。
func (s *Service) ListCompanies(ctx context.Context, actorID string) ([]database.CompanyProfile, error) {
	own := s.db.Model(&database.CompanyMember{}).Select("company_id").Where("user_id = ?", actorID)
	var out []database.CompanyProfile
	err := s.db.WithContext(ctx).
		Where("id NOT IN (?)", own).
		Order("created_at DESC").
		Limit(maxListResults).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}

// Members 列出公司成员，仅成员本人可查看。
func (s *Service) Members(ctx context.Context, actorID, companyID string) ([]Member, error) {
	if _, err := s.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.CompanyMember{}).
		Where("user_id = ? AND company_id = ?", actorID, companyID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if count == 0 {
		return nil, errcode.Permission("only members can view the member list")
	}

	var members []database.CompanyMember
	if err := s.db.WithContext(ctx).Preload("User").
		Where("company_id = ?", companyID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]Member, 0, len(members))
	for _, m := range members {
		out = append(out, Member{
			UserID:   m.UserID,
			Username: m.User.Username,
			Email:    m.User.Email,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return out, nil
}

// AddMember 由公司 admin 添加一个尚未加入任何公司的公司账号。
func (s *Service) AddMember(ctx context.Context, actorID, companyID, userID string, role database.MemberRole) (*database.CompanyMember, error) {
	switch role {
	case database.MemberAdmin, database.MemberHR, database.MemberRecruiter:
	default:
		return nil, errcode.Validationf("invalid member role %q", role)
	}

	var actor database.CompanyMember
	err := s.db.WithContext(ctx).Where("user_id = ? AND company_id = ?", actorID, companyID).First(&actor).Error
	if isNotFound(err) || (err == nil && actor.Role != database.MemberAdmin) {
		return nil, errcode.Permission("only company admins can add members")
	}
	if err != nil {
		return nil, fmt.Errorf("load actor membership: %w", err)
	}

	user, err := LoadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != database.RoleCompany {
		return nil, errcode.Validation("only company accounts can join a company")
	}
	existing, err := MembershipOf(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errcode.Conflict("user is already a member of a company")
	}

	member := database.CompanyMember{UserID: userID, CompanyID: companyID, Role: role}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcode.Wrap(errcode.KindConflict, "user is already a member of a company", err)
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}
	return &member, nil
}
