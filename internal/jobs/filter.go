package jobs

import (
	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
)

// Filter 是职位列表与发现流的可选筛选条件，各条件之间取交集。
type Filter struct {
	Location   string
	JobType    database.JobType
	WorkMode   database.WorkMode
	Experience database.ExperienceLevel
	Tech       string
	MinSalary  *int
	MaxSalary  *int
}

// Validate 校验枚举类筛选值。
func (f Filter) Validate() error {
	if f.JobType != "" && !validJobType(f.JobType) {
		return errcode.Validationf("invalid job_type %q", f.JobType)
	}
	if f.WorkMode != "" && !validWorkMode(f.WorkMode) {
		return errcode.Validationf("invalid work_mode %q", f.WorkMode)
	}
	if f.Experience != "" {
		if _, _, ok := f.Experience.YearsRange(); !ok {
			return errcode.Validationf("invalid experience %q", f.Experience)
		}
	}
	return nil
}

// Apply 将筛选条件附加到 job_postings 查询上。
func (f Filter) Apply(q *gorm.DB) *gorm.DB {
	if f.Location != "" {
		q = q.Where("LOWER(job_postings.location) LIKE ?"+database.LikeEscape, database.ContainsPattern(f.Location))
	}
	if f.JobType != "" {
		q = q.Where("job_postings.job_type = ?", f.JobType)
	}
	if f.WorkMode != "" {
		q = q.Where("job_postings.work_mode = ?", f.WorkMode)
	}
	if f.Experience != "" {
		q = q.Where("job_postings.experience_required = ?", f.Experience)
	}
	if f.Tech != "" {
		q = q.Where("LOWER(CAST(job_postings.tech_stack AS TEXT)) LIKE ?"+database.LikeEscape, database.JSONElementPattern(f.Tech))
	}
	if f.MinSalary != nil {
		q = q.Where("job_postings.salary_min >= ?", *f.MinSalary)
	}
	if f.MaxSalary != nil {
		q = q.Where("job_postings.salary_max <= ?", *f.MaxSalary)
	}
	return q
}

func validJobType(t database.JobType) bool {
	switch t {
	case database.JobFullTime, database.JobPartTime, database.JobContract, database.JobInternship, database.JobFreelance:
		return true
	}
	return false
}

func validWorkMode(m database.WorkMode) bool {
	switch m {
	case database.WorkRemote, database.WorkOnsite, database.WorkHybrid:
		return true
	}
	return false
}

func validStatus(s database.JobStatus) bool {
	switch s {
	case database.JobActive, database.JobClosed, database.JobDraft:
		return true
	}
	return false
}
