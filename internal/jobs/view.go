package jobs

import (
	"time"

	"skillswipe/internal/database"
)

// Card 是职位的对外视图。MatchScore 仅在开发者视角下出现。
type Card struct {
	ID                 string                   `json:"id"`
	CompanyID          string                   `json:"company_id"`
	CompanyName        string                   `json:"company_name"`
	Title              string                   `json:"title"`
	Description        string                   `json:"description"`
	JobType            database.JobType         `json:"job_type"`
	WorkMode           database.WorkMode        `json:"work_mode"`
	TechStack          []string                 `json:"tech_stack"`
	Location           string                   `json:"location"`
	SalaryMin          *int                     `json:"salary_min"`
	SalaryMax          *int                     `json:"salary_max"`
	ExperienceRequired database.ExperienceLevel `json:"experience_required,omitempty"`
	Status             database.JobStatus       `json:"status"`
	MatchScore         *int                     `json:"match_score,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
}

// NewCard 构造职位视图；dev 非空时附带匹配分。
func NewCard(job database.JobPosting, dev *database.DeveloperProfile) Card {
	tech := []string(job.TechStack)
	if tech == nil {
		tech = []string{}
	}
	card := Card{
		ID:                 job.ID,
		CompanyID:          job.CompanyID,
		CompanyName:        job.Company.Name,
		Title:              job.Title,
		Description:        job.Description,
		JobType:            job.JobType,
		WorkMode:           job.WorkMode,
		TechStack:          tech,
		Location:           job.Location,
		SalaryMin:          job.SalaryMin,
		SalaryMax:          job.SalaryMax,
		ExperienceRequired: job.ExperienceRequired,
		Status:             job.Status,
		CreatedAt:          job.CreatedAt,
	}
	if dev != nil {
		score := MatchScore(job, dev)
		card.MatchScore = &score
	}
	return card
}

// NewCards 批量构造职位视图。
func NewCards(list []database.JobPosting, dev *database.DeveloperProfile) []Card {
	out := make([]Card, 0, len(list))
	for _, job := range list {
		out = append(out, NewCard(job, dev))
	}
	return out
}
