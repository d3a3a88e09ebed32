package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
	"skillswipe/internal/profile"
)

const (
	minTitleLength       = 5
	minDescriptionLength = 50
	maxTechStack         = 10
	maxListResults       = 50
)

// Input 是创建或部分更新职位的请求体，nil 字段保持不变。
type Input struct {
	Title              *string                   `json:"title"`
	Description        *string                   `json:"description"`
	JobType            *database.JobType         `json:"job_type"`
	WorkMode           *database.WorkMode        `json:"work_mode"`
	TechStack          *[]string                 `json:"tech_stack"`
	Location           *string                   `json:"location"`
	SalaryMin          *int                      `json:"salary_min"`
	SalaryMax          *int                      `json:"salary_max"`
	ExperienceRequired *database.ExperienceLevel `json:"experience_required"`
	Status             *database.JobStatus       `json:"status"`
}

func (in Input) applyTo(job *database.JobPosting) {
	if in.Title != nil {
		job.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		job.Description = strings.TrimSpace(*in.Description)
	}
	if in.JobType != nil {
		job.JobType = *in.JobType
	}
	if in.WorkMode != nil {
		job.WorkMode = *in.WorkMode
	}
	if in.TechStack != nil {
		tech := make(datatypes.JSONSlice[string], 0, len(*in.TechStack))
		for _, s := range *in.TechStack {
			if s = strings.TrimSpace(s); s != "" {
				tech = append(tech, s)
			}
		}
		job.TechStack = tech
	}
	if in.Location != nil {
		job.Location = strings.TrimSpace(*in.Location)
	}
	if in.SalaryMin != nil {
		job.SalaryMin = in.SalaryMin
	}
	if in.SalaryMax != nil {
		job.SalaryMax = in.SalaryMax
	}
	if in.ExperienceRequired != nil {
		job.ExperienceRequired = *in.ExperienceRequired
	}
	if in.Status != nil {
		job.Status = *in.Status
	}
}

func validate(job *database.JobPosting) error {
	if len([]rune(job.Title)) < minTitleLength {
		return errcode.Validationf("title must be at least %d characters long", minTitleLength)
	}
	if len([]rune(job.Description)) < minDescriptionLength {
		return errcode.Validationf("description must be at least %d characters long", minDescriptionLength)
	}
	if !validJobType(job.JobType) {
		return errcode.Validationf("invalid job_type %q", job.JobType)
	}
	if !validWorkMode(job.WorkMode) {
		return errcode.Validationf("invalid work_mode %q", job.WorkMode)
	}
	if len(job.TechStack) == 0 {
		return errcode.Validation("at least one technology is required")
	}
	if len(job.TechStack) > maxTechStack {
		return errcode.Validationf("tech_stack accepts at most %d entries", maxTechStack)
	}
	if job.ExperienceRequired != "" {
		if _, _, ok := job.ExperienceRequired.YearsRange(); !ok {
			return errcode.Validationf("invalid experience_required %q", job.ExperienceRequired)
		}
	}
	if !validStatus(job.Status) {
		return errcode.Validationf("invalid status %q", job.Status)
	}
	if (job.SalaryMin != nil && *job.SalaryMin < 0) || (job.SalaryMax != nil && *job.SalaryMax < 0) {
		return errcode.Validation("salary must not be negative")
	}
	if job.SalaryMin != nil && job.SalaryMax != nil && *job.SalaryMin > *job.SalaryMax {
		return errcode.Validation("salary_min must not exceed salary_max")
	}
	return nil
}

// Service 负责职位的发布、维护与查询。
type Service struct {
	db *gorm.DB
}

// NewService 构造职位服务。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// managerMembership 要求 actor 是某公司的 admin/hr 成员。
func (s *Service) managerMembership(ctx context.Context, actorID string) (*database.CompanyMember, error) {
	member, err := profile.MembershipOf(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errcode.Permission("only company members can manage job postings")
	}
	if !member.Role.CanManage() {
		return nil, errcode.Permission("only admin or hr members can manage job postings")
	}
	return member, nil
}

// Create 发布职位，默认状态为 active。
func (s *Service) Create(ctx context.Context, actorID string, in Input) (*database.JobPosting, error) {
	member, err := s.managerMembership(ctx, actorID)
	if err != nil {
		return nil, err
	}

	job := database.JobPosting{
		CompanyID:   member.CompanyID,
		CreatedByID: actorID,
		Status:      database.JobActive,
	}
	in.applyTo(&job)
	if err := validate(&job); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return s.load(ctx, job.ID)
}

// Update 部分更新职位。已关闭的职位不能重新开启。
func (s *Service) Update(ctx context.Context, actorID, jobID string, in Input) (*database.JobPosting, error) {
	job, err := s.editable(ctx, actorID, jobID)
	if err != nil {
		return nil, err
	}
	wasClosed := job.Status == database.JobClosed
	in.applyTo(job)
	if wasClosed && job.Status != database.JobClosed {
		return nil, errcode.Validation("closed job postings cannot be reopened")
	}
	if err := validate(job); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Omit("Company", "CreatedBy").Save(job).Error; err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return job, nil
}

// Close 将职位置为 closed（软删除）。重复关闭是幂等的。
func (s *Service) Close(ctx context.Context, actorID, jobID string) (*database.JobPosting, error) {
	job, err := s.editable(ctx, actorID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == database.JobClosed {
		return job, nil
	}
	if err := s.db.WithContext(ctx).Model(job).Update("status", database.JobClosed).Error; err != nil {
		return nil, fmt.Errorf("close job: %w", err)
	}
	job.Status = database.JobClosed
	return job, nil
}

func (s *Service) editable(ctx context.Context, actorID, jobID string) (*database.JobPosting, error) {
	member, err := s.managerMembership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.CompanyID != member.CompanyID {
		return nil, errcode.Permission("job posting belongs to another company")
	}
	return job, nil
}

func (s *Service) load(ctx context.Context, jobID string) (*database.JobPosting, error) {
	var job database.JobPosting
	if err := s.db.WithContext(ctx).Preload("Company").First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.NotFound("job posting not found")
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	return &job, nil
}

// Get 返回职位详情：公开职位任何人可见，非 active 职位仅本公司成员可见。
func (s *Service) Get(ctx context.Context, actorID, jobID string) (*database.JobPosting, error) {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == database.JobActive {
		return job, nil
	}
	ids, err := profile.CompanyIDsOf(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == job.CompanyID {
			return job, nil
		}
	}
	return nil, errcode.NotFound("job posting not found")
}

// List 返回职位列表。manage 为 true 时列出 actor 所在公司的全部职位，
// 否则列出其他公司的 active 职位。
func (s *Service) List(ctx context.Context, actorID string, f Filter, manage bool) ([]database.JobPosting, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	own := s.db.Model(&database.CompanyMember{}).Select("company_id").Where("user_id = ?", actorID)

	q := s.db.WithContext(ctx).Model(&database.JobPosting{}).Preload("Company")
	if manage {
		q = q.Where("job_postings.company_id IN (?)", own)
	} else {
		q = q.Where("job_postings.status = ? AND job_postings.company_id NOT IN (?)", database.JobActive, own)
	}
	q = f.Apply(q)

	var out []database.JobPosting
	if err := q.Order("job_postings.created_at DESC").Limit(maxListResults).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

// Statistics 汇总 actor 所在公司的职位数据。
type Statistics struct {
	TotalJobs         int64 `json:"total_jobs"`
	ActiveJobs        int64 `json:"active_jobs"`
	DraftJobs         int64 `json:"draft_jobs"`
	ClosedJobs        int64 `json:"closed_jobs"`
	TotalApplications int64 `json:"total_applications"`
}

// Statistics 返回 actor 所在公司的职位统计。
func (s *Service) Statistics(ctx context.Context, actorID string) (Statistics, error) {
	var stats Statistics
	member, err := profile.MembershipOf(ctx, s.db, actorID)
	if err != nil {
		return stats, err
	}
	if member == nil {
		return stats, errcode.Permission("only company members can view job statistics")
	}

	type row struct {
		Status database.JobStatus
		Count  int64
	}
	var rows []row
	if err := s.db.WithContext(ctx).Model(&database.JobPosting{}).
		Select("status, COUNT(*) AS count").
		Where("company_id = ?", member.CompanyID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return stats, fmt.Errorf("count jobs: %w", err)
	}
	for _, r := range rows {
		stats.TotalJobs += r.Count
		switch r.Status {
		case database.JobActive:
			stats.ActiveJobs = r.Count
		case database.JobDraft:
			stats.DraftJobs = r.Count
		case database.JobClosed:
			stats.ClosedJobs = r.Count
		}
	}

	companyJobs := s.db.Model(&database.JobPosting{}).Select("id").Where("company_id = ?", member.CompanyID)
	if err := s.db.WithContext(ctx).Model(&database.SwipeAction{}).
		Where("swipe_type = ? AND job_post_id IN (?)", database.SwipeJob, companyJobs).
		Count(&stats.TotalApplications).Error; err != nil {
		return stats, fmt.Errorf("count applications: %w", err)
	}
	return stats, nil
}
