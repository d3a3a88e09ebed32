package profile

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
)

const (
	maxListEntries = 2
	maxExperience  = 50
	minNameLength  = 2
)

// DeveloperInput 是创建或部分更新开发者资料的请求体，nil 字段保持不变。
type DeveloperInput struct {
	Name                 *string        `json:"name"`
	Bio                  *string        `json:"bio"`
	City                 *string        `json:"city"`
	CurrentLocation      *string        `json:"current_location"`
	ExperienceYears      *int           `json:"experience_years"`
	TopLanguages         *[]string      `json:"top_languages"`
	Tools                *[]string      `json:"tools"`
	IDEs                 *[]string      `json:"ides"`
	Databases            *[]string      `json:"databases"`
	OperatingSystems     *[]string      `json:"operating_systems"`
	Domains              *[]string      `json:"domains"`
	Clouds               *[]string      `json:"clouds"`
	Certifications       *string        `json:"certifications"`
	Awards               *string        `json:"awards"`
	OpenSource           *string        `json:"open_source"`
	JobPreferences       map[string]any `json:"job_preferences"`
	SalaryExpectationMin *int           `json:"salary_expectation_min"`
	SalaryExpectationMax *int           `json:"salary_expectation_max"`
	WillingToRelocate    *bool          `json:"willing_to_relocate"`
	TopTwoCities         *[]string      `json:"top_two_cities"`
	GitHubURL            *string        `json:"github_url"`
	LeetCodeURL          *string        `json:"leetcode_url"`
	HackerRankURL        *string        `json:"hackerrank_url"`
}

func (in DeveloperInput) applyTo(p *database.DeveloperProfile) {
	setString(&p.Name, in.Name)
	setString(&p.Bio, in.Bio)
	setString(&p.City, in.City)
	setString(&p.CurrentLocation, in.CurrentLocation)
	if in.ExperienceYears != nil {
		p.ExperienceYears = in.ExperienceYears
	}
	setList(&p.TopLanguages, in.TopLanguages)
	setList(&p.Tools, in.Tools)
	setList(&p.IDEs, in.IDEs)
	setList(&p.Databases, in.Databases)
	setList(&p.OperatingSystems, in.OperatingSystems)
	setList(&p.Domains, in.Domains)
	setList(&p.Clouds, in.Clouds)
	setString(&p.Certifications, in.Certifications)
	setString(&p.Awards, in.Awards)
	setString(&p.OpenSource, in.OpenSource)
	if in.JobPreferences != nil {
		p.JobPreferences = datatypes.JSONMap(in.JobPreferences)
	}
	if in.SalaryExpectationMin != nil {
		p.SalaryExpectationMin = in.SalaryExpectationMin
	}
	if in.SalaryExpectationMax != nil {
		p.SalaryExpectationMax = in.SalaryExpectationMax
	}
	if in.WillingToRelocate != nil {
		p.WillingToRelocate = *in.WillingToRelocate
	}
	setList(&p.TopTwoCities, in.TopTwoCities)
	setString(&p.GitHubURL, in.GitHubURL)
	setString(&p.LeetCodeURL, in.LeetCodeURL)
	setString(&p.HackerRankURL, in.HackerRankURL)
}

func validateDeveloper(p *database.DeveloperProfile) error {
	if p.Name != "" && len([]rune(p.Name)) < minNameLength {
		return errcode.Validationf("name must be at least %d characters long", minNameLength)
	}
	if p.ExperienceYears != nil && (*p.ExperienceYears < 0 || *p.ExperienceYears > maxExperience) {
		return errcode.Validationf("experience_years must be between 0 and %d", maxExperience)
	}
	lists := map[string][]string{
		"top_languages":     p.TopLanguages,
		"tools":             p.Tools,
		"ides":              p.IDEs,
		"databases":         p.Databases,
		"operating_systems": p.OperatingSystems,
		"domains":           p.Domains,
		"clouds":            p.Clouds,
		"top_two_cities":    p.TopTwoCities,
	}
	for field, values := range lists {
		if len(values) > maxListEntries {
			return errcode.Validationf("%s accepts at most %d entries", field, maxListEntries)
		}
	}
	if err := validateRange("salary_expectation", p.SalaryExpectationMin, p.SalaryExpectationMax); err != nil {
		return err
	}
	return nil
}

// CreateDeveloper 为开发者账号创建资料，每个账号仅一份。
func (s *Service) CreateDeveloper(ctx context.Context, userID string, in DeveloperInput) (*database.DeveloperProfile, error) {
	user, err := LoadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != database.RoleDeveloper {
		return nil, errcode.Permission("only developer accounts can create a developer profile")
	}

	existing, err := s.findDeveloper(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errcode.Conflict("developer profile already exists")
	}

	p := database.DeveloperProfile{UserID: userID}
	in.applyTo(&p)
	if err := validateDeveloper(&p); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcode.Wrap(errcode.KindConflict, "developer profile already exists", err)
		}
		return nil, fmt.Errorf("create developer profile: %w", err)
	}
	p.User = user
	return &p, nil
}

// DeveloperForUser 返回账号自己的开发者资料。
func (s *Service) DeveloperForUser(ctx context.Context, userID string) (*database.DeveloperProfile, error) {
	p, err := s.findDeveloper(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errcode.NotFound("developer profile not found")
	}
	return p, nil
}

// UpdateDeveloper 部分更新账号自己的开发者资料。
func (s *Service) UpdateDeveloper(ctx context.Context, userID string, in DeveloperInput) (*database.DeveloperProfile, error) {
	p, err := s.DeveloperForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.applyTo(p)
	if err := validateDeveloper(p); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Omit("User").Save(p).Error; err != nil {
		return nil, fmt.Errorf("update developer profile: %w", err)
	}
	return p, nil
}

// SetDeveloperAvatar 记录头像对象键，返回被替换的旧键。
func (s *Service) SetDeveloperAvatar(ctx context.Context, userID, objectKey string) (string, error) {
	p, err := s.DeveloperForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	previous := p.AvatarObjectKey
	if err := s.db.WithContext(ctx).Model(p).Update("avatar_object_key", objectKey).Error; err != nil {
		return "", fmt.Errorf("update avatar: %w", err)
	}
	return previous, nil
}

// GetDeveloper 按资料 ID 读取，账号非活跃时视为不存在。
func (s *Service) GetDeveloper(ctx context.Context, profileID string) (*database.DeveloperProfile, error) {
	var p database.DeveloperProfile
	err := s.db.WithContext(ctx).
		Joins("User").
		Where("developer_profiles.id = ? AND \"User\".status = ?", profileID, database.UserActive).
		Take(&p).Error
	if err != nil {
		if isNotFound(err) {
			return nil, errcode.NotFound("developer profile not found")
		}
		return nil, fmt.Errorf("load developer profile: %w", err)
	}
	return &p, nil
}

// ListDevelopers 列出其他活跃开发者，按更新时间倒序。
func (s *Service) ListDevelopers(ctx context.Context, actorID string) ([]database.DeveloperProfile, error) {
	var out []database.DeveloperProfile
	err := s.db.WithContext(ctx).
		Joins("User").
		Where("developer_profiles.user_id <> ? AND \"User\".status = ?", actorID, database.UserActive).
		Order("developer_profiles.updated_at DESC").
		Limit(maxListResults).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list developer profiles: %w", err)
	}
	return out, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setList(dst *datatypes.JSONSlice[string], v *[]string) {
	if v == nil {
		return
	}
	out := make(datatypes.JSONSlice[string], 0, len(*v))
	for _, item := range *v {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func validateRange(field string, lo, hi *int) error {
	if lo != nil && *lo < 0 {
		return errcode.Validationf("%s_min must not be negative", field)
	}
	if hi != nil && *hi < 0 {
		return errcode.Validationf("%s_max must not be negative", field)
	}
	if lo != nil && hi != nil && *lo > *hi {
		return errcode.Validationf("%s_min must not exceed %s_max", field, field)
	}
	return nil
}
