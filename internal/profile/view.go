package profile

import (
	"time"

	"skillswipe/internal/database"
)

// PublicDeveloper 是开发者资料的对外视图。
type PublicDeveloper struct {
	ID                   string         `json:"id"`
	UserID               string         `json:"user_id"`
	Username             string         `json:"username,omitempty"`
	Name                 string         `json:"name"`
	Bio                  string         `json:"bio"`
	City                 string         `json:"city"`
	CurrentLocation      string         `json:"current_location"`
	ExperienceYears      *int           `json:"experience_years"`
	TopLanguages         []string       `json:"top_languages"`
	Tools                []string       `json:"tools"`
	IDEs                 []string       `json:"ides"`
	Databases            []string       `json:"databases"`
	OperatingSystems     []string       `json:"operating_systems"`
	Domains              []string       `json:"domains"`
	Clouds               []string       `json:"clouds"`
	Certifications       string         `json:"certifications"`
	Awards               string         `json:"awards"`
	OpenSource           string         `json:"open_source"`
	JobPreferences       map[string]any `json:"job_preferences"`
	SalaryExpectationMin *int           `json:"salary_expectation_min"`
	SalaryExpectationMax *int           `json:"salary_expectation_max"`
	WillingToRelocate    bool           `json:"willing_to_relocate"`
	TopTwoCities         []string       `json:"top_two_cities"`
	GitHubURL            string         `json:"github_url"`
	LeetCodeURL          string         `json:"leetcode_url"`
	HackerRankURL        string         `json:"hackerrank_url"`
	AvatarObjectKey      string         `json:"-"`
	AvatarURL            string         `json:"avatar_url,omitempty"`
	ProfileCompletion    int            `json:"profile_completion"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewPublicDeveloper 由数据库模型构造对外视图。
func NewPublicDeveloper(p database.DeveloperProfile) PublicDeveloper {
	completion, _ := DeveloperCompletion(&p)
	return PublicDeveloper{
		ID:                   p.ID,
		UserID:               p.UserID,
		Username:             p.User.Username,
		Name:                 p.Name,
		Bio:                  p.Bio,
		City:                 p.City,
		CurrentLocation:      p.CurrentLocation,
		ExperienceYears:      p.ExperienceYears,
		TopLanguages:         list(p.TopLanguages),
		Tools:                list(p.Tools),
		IDEs:                 list(p.IDEs),
		Databases:            list(p.Databases),
		OperatingSystems:     list(p.OperatingSystems),
		Domains:              list(p.Domains),
		Clouds:               list(p.Clouds),
		Certifications:       p.Certifications,
		Awards:               p.Awards,
		OpenSource:           p.OpenSource,
		JobPreferences:       p.JobPreferences,
		SalaryExpectationMin: p.SalaryExpectationMin,
		SalaryExpectationMax: p.SalaryExpectationMax,
		WillingToRelocate:    p.WillingToRelocate,
		TopTwoCities:         list(p.TopTwoCities),
		GitHubURL:            p.GitHubURL,
		LeetCodeURL:          p.LeetCodeURL,
		HackerRankURL:        p.HackerRankURL,
		AvatarObjectKey:      p.AvatarObjectKey,
		ProfileCompletion:    completion,
		UpdatedAt:            p.UpdatedAt,
	}
}

// PublicCompany 是公司资料的对外视图。
type PublicCompany struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	About             string    `json:"about"`
	Website           string    `json:"website"`
	Location          string    `json:"location"`
	LinkedInURL       string    `json:"linkedin_url"`
	LogoObjectKey     string    `json:"-"`
	LogoURL           string    `json:"logo_url,omitempty"`
	ProfileCompletion int       `json:"profile_completion"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewPublicCompany 由数据库模型构造对外视图。
func NewPublicCompany(c database.CompanyProfile) PublicCompany {
	completion, _ := CompanyCompletion(&c)
	return PublicCompany{
		ID:                c.ID,
		Name:              c.Name,
		About:             c.About,
		Website:           c.Website,
		Location:          c.Location,
		LinkedInURL:       c.LinkedInURL,
		LogoObjectKey:     c.LogoObjectKey,
		ProfileCompletion: completion,
		CreatedAt:         c.CreatedAt,
	}
}

// Member 是公司成员列表中的一项。
type Member struct {
	UserID   string              `json:"user_id"`
	Username string              `json:"username"`
	Email    string              `json:"email"`
	Role     database.MemberRole `json:"role"`
	JoinedAt time.Time           `json:"joined_at"`
}

func list(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
