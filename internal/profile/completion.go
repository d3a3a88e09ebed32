package profile

import (
	"strings"

	"skillswipe/internal/database"
)

const (
	StepComplete           = "complete"
	StepCreateDeveloper    = "create_developer_profile"
	StepCreateCompany      = "create_company_profile"
	StepAddName            = "add_name"
	StepAddBio             = "add_bio"
	StepAddLocation        = "add_location"
	StepAddExperience      = "add_experience"
	StepAddSkills          = "add_skills"
	StepAddCompanyName     = "add_company_name"
	StepAddCompanyAbout    = "add_company_about"
	StepAddCompanyLocation = "add_company_location"
)

type check[T any] struct {
	step string
	done func(T) bool
}

var developerChecklist = []check[*database.DeveloperProfile]{
	{StepAddName, func(p *database.DeveloperProfile) bool { return filled(p.Name) }},
	{StepAddBio, func(p *database.DeveloperProfile) bool { return filled(p.Bio) }},
	{StepAddLocation, func(p *database.DeveloperProfile) bool { return filled(p.CurrentLocation) }},
	{StepAddExperience, func(p *database.DeveloperProfile) bool { return p.ExperienceYears != nil }},
	{StepAddSkills, func(p *database.DeveloperProfile) bool { return len(p.TopLanguages) > 0 }},
}

var companyChecklist = []check[*database.CompanyProfile]{
	{StepAddCompanyName, func(c *database.CompanyProfile) bool { return filled(c.Name) }},
	{StepAddCompanyAbout, func(c *database.CompanyProfile) bool { return filled(c.About) }},
	{StepAddCompanyLocation, func(c *database.CompanyProfile) bool { return filled(c.Location) }},
}

// DeveloperCompletion 返回开发者资料完成度（0-100）及下一步建议。
func DeveloperCompletion(p *database.DeveloperProfile) (int, string) {
	if p == nil {
		return 0, StepCreateDeveloper
	}
	return evaluate(p, developerChecklist)
}

// CompanyCompletion 返回公司资料完成度（0-100）及下一步建议。
func CompanyCompletion(c *database.CompanyProfile) (int, string) {
	if c == nil {
		return 0, StepCreateCompany
	}
	return evaluate(c, companyChecklist)
}

func evaluate[T any](v T, checklist []check[T]) (int, string) {
	done := 0
	next := ""
	for _, c := range checklist {
		if c.done(v) {
			done++
			continue
		}
		if next == "" {
			next = c.step
		}
	}
	if next == "" {
		next = StepComplete
	}
	return done * 100 / len(checklist), next
}

func filled(s string) bool { return strings.TrimSpace(s) != "" }
