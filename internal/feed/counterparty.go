package feed

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/profile"
)

// Counterparty 是 dashboard 中对方账号的公开信息。
type Counterparty struct {
	UserID    string                   `json:"user_id"`
	Username  string                   `json:"username"`
	Role      database.Role            `json:"role"`
	Developer *profile.PublicDeveloper `json:"developer,omitempty"`
	Company   *profile.PublicCompany   `json:"company,omitempty"`
}

func (c Counterparty) hasProfile() bool { return c.Developer != nil || c.Company != nil }

// counterparties 批量解析用户的公开资料。非活跃或不存在的用户不会出现在结果中。
func counterparties(ctx context.Context, db *gorm.DB, ids []string) (map[string]Counterparty, error) {
	out := make(map[string]Counterparty, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	db = db.WithContext(ctx)

	var users []database.User
	if err := db.Where("id IN ? AND status = ?", ids, database.UserActive).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	byID := make(map[string]database.User, len(users))
	var devIDs, companyUserIDs []string
	for _, u := range users {
		byID[u.ID] = u
		out[u.ID] = Counterparty{UserID: u.ID, Username: u.Username, Role: u.Role}
		if u.Role == database.RoleDeveloper {
			devIDs = append(devIDs, u.ID)
		} else {
			companyUserIDs = append(companyUserIDs, u.ID)
		}
	}

	if len(devIDs) > 0 {
		var profiles []database.DeveloperProfile
		if err := db.Where("user_id IN ?", devIDs).Find(&profiles).Error; err != nil {
			return nil, fmt.Errorf("load developer profiles: %w", err)
		}
		for _, p := range profiles {
			p.User = byID[p.UserID]
			view := profile.NewPublicDeveloper(p)
			cp := out[p.UserID]
			cp.Developer = &view
			out[p.UserID] = cp
		}
	}

	if len(companyUserIDs) > 0 {
		var members []database.CompanyMember
		if err := db.Where("user_id IN ?", companyUserIDs).Order("joined_at ASC").Find(&members).Error; err != nil {
			return nil, fmt.Errorf("load memberships: %w", err)
		}
		companyOf := make(map[string]string, len(members))
		var companyIDs []string
		for _, m := range members {
			if _, seen := companyOf[m.UserID]; !seen {
				companyOf[m.UserID] = m.CompanyID
				companyIDs = append(companyIDs, m.CompanyID)
			}
		}
		if len(companyIDs) > 0 {
			var companies []database.CompanyProfile
			if err := db.Where("id IN ?", companyIDs).Find(&companies).Error; err != nil {
				return nil, fmt.Errorf("load companies: %w", err)
			}
			views := make(map[string]profile.PublicCompany, len(companies))
			for _, c := range companies {
				views[c.ID] = profile.NewPublicCompany(c)
			}
			for userID, companyID := range companyOf {
				if view, ok := views[companyID]; ok {
					cp := out[userID]
					cp.Company = &view
					out[userID] = cp
				}
			}
		}
	}
	return out, nil
}
