// Package target 描述 swipe 或收藏指向的对象：职位或他人资料，二者恰好其一。
package target

import (
	"strings"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
)

// Target 仅由 JobTarget 与 ProfileTarget 实现。
type Target interface {
	// Key 是写入去重列的规范形式。
	Key() string
	SwipeType() database.SwipeType
	isTarget()
}

// JobTarget 指向一个职位。
type JobTarget struct {
	JobID string
}

// ProfileTarget 指向一个用户的资料。
type ProfileTarget struct {
	UserID string
}

func (t JobTarget) Key() string                       { return "job:" + t.JobID }
func (t JobTarget) SwipeType() database.SwipeType     { return database.SwipeJob }
func (JobTarget) isTarget()                           {}
func (t ProfileTarget) Key() string                   { return "profile:" + t.UserID }
func (t ProfileTarget) SwipeType() database.SwipeType { return database.SwipeProfile }
func (ProfileTarget) isTarget()                       {}

// FromIDs 由两个可选 ID 构造目标，必须恰好提供其一。
func FromIDs(jobID, userID string) (Target, error) {
	jobID, userID = strings.TrimSpace(jobID), strings.TrimSpace(userID)
	switch {
	case jobID != "" && userID != "":
		return nil, errcode.Validation("specify either a job or a user, not both")
	case jobID != "":
		return JobTarget{JobID: jobID}, nil
	case userID != "":
		return ProfileTarget{UserID: userID}, nil
	default:
		return nil, errcode.Validation("either a job or a user must be specified")
	}
}

// ForSwipe 构造 swipe 请求的目标：swipeType 对应的 ID 必填，另一个必须为空。
func ForSwipe(swipeType database.SwipeType, userID, jobID string) (Target, error) {
	jobID, userID = strings.TrimSpace(jobID), strings.TrimSpace(userID)
	switch swipeType {
	case database.SwipeProfile:
		if userID == "" {
			return nil, errcode.Validation("target_user_id is required for profile swipes")
		}
		if jobID != "" {
			return nil, errcode.Validation("job_id is not allowed for profile swipes")
		}
		return ProfileTarget{UserID: userID}, nil
	case database.SwipeJob:
		if jobID == "" {
			return nil, errcode.Validation("job_id is required for job swipes")
		}
		if userID != "" {
			return nil, errcode.Validation("target_user_id is not allowed for job swipes")
		}
		return JobTarget{JobID: jobID}, nil
	default:
		return nil, errcode.Validationf("unknown swipe_type %q", swipeType)
	}
}
