package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role 表示账号角色，注册后不可变更。
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleCompany   Role = "company"
)

// Valid 判断角色取值是否合法。
func (r Role) Valid() bool {
	return r == RoleDeveloper || r == RoleCompany
}

// UserStatus 表示账号状态。
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserPending  UserStatus = "pending"
)

// User 表示系统中的账号信息。
type User struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	Username           string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email              string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash       string     `gorm:"size:255" json:"-"`
	Role               Role       `gorm:"size:16;not null;index:idx_users_role_status,priority:1" json:"role"`
	Status             UserStatus `gorm:"size:16;not null;default:active;index:idx_users_role_status,priority:2" json:"status"`
	MustChangePassword bool       `gorm:"not null;default:false" json:"must_change_password"`
	LastActivityAt     time.Time  `gorm:"index" json:"last_activity_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsActive 判断账号是否处于可被发现的状态。
func (u User) IsActive() bool { return u.Status == UserActive }

// DeveloperProfile 与开发者账号一一对应。
type DeveloperProfile struct {
	ID                   string                      `gorm:"primaryKey;size:36"`
	UserID               string                      `gorm:"size:36;not null;uniqueIndex"`
	User                 User                        `gorm:"constraint:OnDelete:CASCADE"`
	Name                 string                      `gorm:"size:100"`
	Bio                  string                      `gorm:"type:text"`
	City                 string                      `gorm:"size:100"`
	CurrentLocation      string                      `gorm:"size:200"`
	ExperienceYears      *int
	TopLanguages         datatypes.JSONSlice[string]
	Tools                datatypes.JSONSlice[string]
	IDEs                 datatypes.JSONSlice[string] `gorm:"column:ides"`
	Databases            datatypes.JSONSlice[string]
	OperatingSystems     datatypes.JSONSlice[string]
	Domains              datatypes.JSONSlice[string]
	Clouds               datatypes.JSONSlice[string]
	Certifications       string                      `gorm:"type:text"`
	Awards               string                      `gorm:"type:text"`
	OpenSource           string                      `gorm:"type:text"`
	JobPreferences       datatypes.JSONMap
	SalaryExpectationMin *int
	SalaryExpectationMax *int
	WillingToRelocate    bool                        `gorm:"not null;default:false"`
	TopTwoCities         datatypes.JSONSlice[string]
	GitHubURL            string                      `gorm:"column:github_url;size:255"`
	LeetCodeURL          string                      `gorm:"column:leetcode_url;size:255"`
	HackerRankURL        string                      `gorm:"column:hackerrank_url;size:255"`
	AvatarObjectKey      string                      `gorm:"size:255"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CompanyProfile 表示公司主页，可由多个成员共同维护。
type CompanyProfile struct {
	ID            string          `gorm:"primaryKey;size:36"`
	CreatedByID   string          `gorm:"size:36;not null;index"`
	CreatedBy     User            `gorm:"constraint:OnDelete:CASCADE"`
	Name          string          `gorm:"size:200;not null"`
	About         string          `gorm:"type:text"`
	Website       string          `gorm:"size:255"`
	Location      string          `gorm:"size:200"`
	LinkedInURL   string          `gorm:"column:linkedin_url;size:255"`
	LogoObjectKey string          `gorm:"size:255"`
	Members       []CompanyMember `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MemberRole 表示成员在公司内的角色。
type MemberRole string

const (
	MemberAdmin     MemberRole = "admin"
	MemberHR        MemberRole = "hr"
	MemberRecruiter MemberRole = "recruiter"
)

// CanManage 仅 admin 与 hr 可修改公司资料及职位。
func (r MemberRole) CanManage() bool {
	return r == MemberAdmin || r == MemberHR
}

// CompanyMember 关联账号与公司，(user, company) 唯一。
type CompanyMember struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:36;not null;uniqueIndex:idx_member_user_company,priority:1"`
	User      User       `gorm:"constraint:OnDelete:CASCADE"`
	CompanyID string     `gorm:"size:36;not null;uniqueIndex:idx_member_user_company,priority:2;index"`
	Role      MemberRole `gorm:"size:16;not null"`
	JoinedAt  time.Time  `gorm:"autoCreateTime"`
}

type JobType string

const (
	JobFullTime   JobType = "full_time"
	JobPartTime   JobType = "part_time"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
	JobFreelance  JobType = "freelance"
)

type WorkMode string

const (
	WorkRemote WorkMode = "remote"
	WorkOnsite WorkMode = "onsite"
	WorkHybrid WorkMode = "hybrid"
)

// ExperienceLevel 是职位要求的经验区间，空值表示不限。
type ExperienceLevel string

const (
	ExperienceEntry  ExperienceLevel = "entry"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
	ExperienceLead   ExperienceLevel = "lead"
)

// YearsRange 返回经验区间对应的年限 [min, max]。
func (e ExperienceLevel) YearsRange() (int, int, bool) {
	switch e {
	case ExperienceEntry:
		return 0, 2, true
	case ExperienceMid:
		return 2, 5, true
	case ExperienceSenior:
		return 5, 10, true
	case ExperienceLead:
		return 10, 50, true
	default:
		return 0, 0, false
	}
}

type JobStatus string

const (
	JobActive JobStatus = "active"
	JobClosed JobStatus = "closed"
	JobDraft  JobStatus = "draft"
)

// JobPosting 归属于一个公司及其创建者。
type JobPosting struct {
	ID                 string                      `gorm:"primaryKey;size:36"`
	CompanyID          string                      `gorm:"size:36;not null;index:idx_jobs_company_status,priority:1"`
	Company            CompanyProfile              `gorm:"constraint:OnDelete:CASCADE"`
	CreatedByID        string                      `gorm:"size:36;not null;index"`
	CreatedBy          User                        `gorm:"constraint:OnDelete:CASCADE"`
	Title              string                      `gorm:"size:200;not null"`
	Description        string                      `gorm:"type:text;not null"`
	JobType            JobType                     `gorm:"size:20;not null"`
	WorkMode           WorkMode                    `gorm:"size:20;not null"`
	TechStack          datatypes.JSONSlice[string]
	Location           string                      `gorm:"size:200"`
	SalaryMin          *int
	SalaryMax          *int
	ExperienceRequired ExperienceLevel             `gorm:"size:20"`
	Status             JobStatus                   `gorm:"size:16;not null;default:active;index:idx_jobs_company_status,priority:2;index:idx_jobs_status_created,priority:1"`
	CreatedAt          time.Time                   `gorm:"index:idx_jobs_status_created,priority:2"`
	UpdatedAt          time.Time
}

// WishlistEntry 收藏一个职位或一个用户，二者恰好其一。
// TargetKey 是目标的规范化键，用于唯一约束。
type WishlistEntry struct {
	ID           string      `gorm:"primaryKey;size:36"`
	UserID       string      `gorm:"size:36;not null;uniqueIndex:idx_wishlist_user_target,priority:1;check:chk_wishlist_one_target,(job_post_id IS NULL) <> (target_user_id IS NULL)"`
	JobPostID    *string     `gorm:"size:36;index"`
	JobPost      *JobPosting `gorm:"constraint:OnDelete:CASCADE"`
	TargetUserID *string     `gorm:"size:36;index"`
	TargetUser   *User       `gorm:"foreignKey:TargetUserID;constraint:OnDelete:CASCADE"`
	TargetKey    string      `gorm:"size:48;not null;uniqueIndex:idx_wishlist_user_target,priority:2"`
	CreatedAt    time.Time
}

type SwipeType string

const (
	SwipeProfile SwipeType = "profile"
	SwipeJob     SwipeType = "job"
)

// SwipeAction 是只追加的单向意向记录。
// DedupeKey 为 "profile:<user>" 或 "job:<job>"，与 SwiperID 组成唯一键。
type SwipeAction struct {
	ID         string      `gorm:"primaryKey;size:36"`
	SwiperID   string      `gorm:"size:36;not null;uniqueIndex:idx_swipe_dedupe,priority:1;index:idx_swipe_swiper_created,priority:1;check:chk_swipe_not_self,swiper_id <> swiped_on_id"`
	SwipedOnID string      `gorm:"size:36;not null;index"`
	SwipeType  SwipeType   `gorm:"size:16;not null;check:chk_swipe_job_context,(swipe_type = 'job') = (job_post_id IS NOT NULL)"`
	JobPostID  *string     `gorm:"size:36;index"`
	JobPost    *JobPosting `gorm:"constraint:OnDelete:CASCADE"`
	DedupeKey  string      `gorm:"size:48;not null;uniqueIndex:idx_swipe_dedupe,priority:2"`
	CreatedAt  time.Time   `gorm:"index:idx_swipe_swiper_created,priority:2"`
}

type MatchStatus string

const (
	MatchActive   MatchStatus = "active"
	MatchArchived MatchStatus = "archived"
	MatchBlocked  MatchStatus = "blocked"
)

// Match 是双向匹配，User1ID 恒小于 User2ID。
// JobContextKey 为职位 ID 或空串，使无职位上下文的匹配同样受唯一约束保护。
type Match struct {
	ID            string      `gorm:"primaryKey;size:36"`
	User1ID       string      `gorm:"column:user1_id;size:36;not null;uniqueIndex:idx_match_pair_job,priority:1;check:chk_match_pair_order,user1_id < user2_id"`
	User2ID       string      `gorm:"column:user2_id;size:36;not null;uniqueIndex:idx_match_pair_job,priority:2;index"`
	JobPostID     *string     `gorm:"size:36;index"`
	JobPost       *JobPosting `gorm:"constraint:OnDelete:SET NULL"`
	JobContextKey string      `gorm:"size:36;not null;uniqueIndex:idx_match_pair_job,priority:3"`
	Status        MatchStatus `gorm:"size:16;not null;default:active;index"`
	MatchedAt     time.Time   `gorm:"autoCreateTime;index"`
}

// HasUser 判断该匹配是否涉及指定用户。
func (m Match) HasUser(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// OtherUserID 返回匹配中的另一方。
func (m Match) OtherUserID(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func (u *User) BeforeCreate(*gorm.DB) error             { u.ID = newID(u.ID); return nil }
func (p *DeveloperProfile) BeforeCreate(*gorm.DB) error { p.ID = newID(p.ID); return nil }
func (c *CompanyProfile) BeforeCreate(*gorm.DB) error   { c.ID = newID(c.ID); return nil }
func (m *CompanyMember) BeforeCreate(*gorm.DB) error    { m.ID = newID(m.ID); return nil }
func (j *JobPosting) BeforeCreate(*gorm.DB) error       { j.ID = newID(j.ID); return nil }
func (w *WishlistEntry) BeforeCreate(*gorm.DB) error    { w.ID = newID(w.ID); return nil }
func (s *SwipeAction) BeforeCreate(*gorm.DB) error      { s.ID = newID(s.ID); return nil }
func (m *Match) BeforeCreate(*gorm.DB) error            { m.ID = newID(m.ID); return nil }

// Models 返回需要迁移的全部模型，按依赖顺序排列。
func Models() []any {
	return []any{
		&User{},
		&DeveloperProfile{},
		&CompanyProfile{},
		&CompanyMember{},
		&JobPosting{},
		&WishlistEntry{},
		&SwipeAction{},
		&Match{},
	}
}

// AutoMigrate 创建或更新全部表结构及约束。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
