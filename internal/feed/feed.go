// Package feed composes the discovery feed and the dashboard tabs from swipe
// history, wishlist entries, the job catalog and profiles.
package feed

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
	"skillswipe/internal/jobs"
	"skillswipe/internal/profile"
)

const (
	feedLimit  = 20
	tabLimit   = 50
	recentDays = 7
)

// Tab selects a dashboard view.
type Tab string

const (
	TabForMe          Tab = "for_me"
	TabShowedInterest Tab = "showed_interest"
	TabMySwipes       Tab = "my_swipes"
	TabMatches        Tab = "matches"
	TabStats          Tab = "stats"
)

var tabTitles = map[Tab]string{
	TabForMe:          "Recommended for you",
	TabShowedInterest: "Interested in you",
	TabMySwipes:       "Your interest history",
	TabMatches:        "Your matches",
	TabStats:          "Your statistics",
}

// ParseTab 解析 tab 参数，空值视为 for_me。
func ParseTab(raw string) (Tab, error) {
	if raw == "" {
		return TabForMe, nil
	}
	tab := Tab(raw)
	if _, ok := tabTitles[tab]; !ok {
		return "", errcode.Validationf("invalid tab %q, choose one of: for_me, showed_interest, my_swipes, matches, stats", raw)
	}
	return tab, nil
}

// Feed 是发现流结果：开发者看到职位，公司看到开发者。
type Feed struct {
	Type       string                    `json:"type"`
	Count      int                       `json:"count"`
	Jobs       []jobs.Card               `json:"jobs,omitempty"`
	Developers []profile.PublicDeveloper `json:"developers,omitempty"`
}

// Page 是 dashboard 的统一响应结构。stats 使用 Data，其余 tab 使用 Results。
type Page struct {
	Tab     Tab    `json:"tab"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
	Results any    `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Discover 返回 actor 的候选列表。
func (s *Service) Discover(ctx context.Context, actorID string, f jobs.Filter) (*Feed, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	view, err := s.viewFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return view.forMe(ctx, f)
}

// Dashboard 返回指定 tab 的内容。f 仅作用于 for_me。
func (s *Service) Dashboard(ctx context.Context, actorID string, tab Tab, f jobs.Filter) (*Page, error) {
	page := &Page{Tab: tab, Title: tabTitles[tab]}
	switch tab {
	case TabForMe:
		feed, err := s.Discover(ctx, actorID, f)
		if err != nil {
			return nil, err
		}
		page.Count, page.Results = feed.Count, feed
	case TabShowedInterest:
		items, err := s.ShowedInterest(ctx, actorID)
		if err != nil {
			return nil, err
		}
		page.Count, page.Results = len(items), items
	case TabMySwipes:
		items, err := s.MySwipes(ctx, actorID)
		if err != nil {
			return nil, err
		}
		page.Count, page.Results = len(items), items
	case TabMatches:
		items, err := s.Matches(ctx, actorID)
		if err != nil {
			return nil, err
		}
		page.Count, page.Results = len(items), items
	case TabStats:
		stats, err := s.Stats(ctx, actorID)
		if err != nil {
			return nil, err
		}
		page.Data = stats
	default:
		return nil, errcode.Validationf("invalid tab %q", tab)
	}
	return page, nil
}

func (s *Service) viewFor(ctx context.Context, actorID string) (roleView, error) {
	actor, err := profile.LoadUser(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case database.RoleDeveloper:
		return developerView{db: s.db, actor: actor}, nil
	case database.RoleCompany:
		return companyView{db: s.db, actor: actor}, nil
	default:
		return nil, fmt.Errorf("user %s has unknown role %q", actor.ID, actor.Role)
	}
}
