package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswipe/internal/database"
	"skillswipe/internal/testutil"
)

// 直接写入绕过服务层的记录，确认不变式由数据库 CHECK 约束兜底。
func TestCheckConstraints(t *testing.T) {
	db := testutil.NewDB(t)
	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	low, high := dev.ID, owner.ID
	if high < low {
		low, high = high, low
	}

	tests := []struct {
		name       string
		row        any
		constraint string
	}{
		{
			name:       "wishlist with both targets",
			row:        &database.WishlistEntry{UserID: dev.ID, JobPostID: &job.ID, TargetUserID: &owner.ID, TargetKey: "both"},
			constraint: "chk_wishlist_one_target",
		},
		{
			name:       "wishlist with no target",
			row:        &database.WishlistEntry{UserID: dev.ID, TargetKey: "none"},
			constraint: "chk_wishlist_one_target",
		},
		{
			name:       "self swipe",
			row:        &database.SwipeAction{SwiperID: dev.ID, SwipedOnID: dev.ID, SwipeType: database.SwipeProfile, DedupeKey: "profile:" + dev.ID},
			constraint: "chk_swipe_not_self",
		},
		{
			name:       "profile swipe carrying a job",
			row:        &database.SwipeAction{SwiperID: dev.ID, SwipedOnID: owner.ID, SwipeType: database.SwipeProfile, JobPostID: &job.ID, DedupeKey: "profile:" + owner.ID},
			constraint: "chk_swipe_job_context",
		},
		{
			name:       "job swipe without a job",
			row:        &database.SwipeAction{SwiperID: dev.ID, SwipedOnID: owner.ID, SwipeType: database.SwipeJob, DedupeKey: "job:missing"},
			constraint: "chk_swipe_job_context",
		},
		{
			name:       "match pair out of order",
			row:        &database.Match{User1ID: high, User2ID: low, Status: database.MatchActive},
			constraint: "chk_match_pair_order",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.Create(tt.row).Error
			require.Error(t, err)
			assert.True(t, database.IsCheckViolation(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.constraint)
		})
	}

	for _, model := range []any{&database.WishlistEntry{}, &database.SwipeAction{}, &database.Match{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}

	ok := database.Match{User1ID: low, User2ID: high, Status: database.MatchActive}
	require.NoError(t, db.Create(&ok).Error, "ordered pair is accepted")
}
