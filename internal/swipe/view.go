package swipe

import (
	"time"

	"skillswipe/internal/database"
)

// Response 是提交 swipe 的响应体。
type Response struct {
	SwipeID      string             `json:"swipe_id"`
	SwipeType    database.SwipeType `json:"swipe_type"`
	Timestamp    time.Time          `json:"timestamp"`
	MatchCreated bool               `json:"match_created"`
	MatchDetails *MatchDetails      `json:"match_details,omitempty"`
}

type MatchDetails struct {
	ID          string               `json:"id"`
	OtherUserID string               `json:"other_user_id"`
	JobPostID   *string              `json:"job_post_id"`
	Status      database.MatchStatus `json:"status"`
	MatchedAt   time.Time            `json:"matched_at"`
}

// NewResponse 从 swiper 的视角渲染 r。
func NewResponse(r Result) Response {
	resp := Response{
		SwipeID:      r.Swipe.ID,
		SwipeType:    r.Swipe.SwipeType,
		Timestamp:    r.Swipe.CreatedAt,
		MatchCreated: r.MatchCreated,
	}
	if m := r.Match; m != nil {
		resp.MatchDetails = &MatchDetails{
			ID:          m.ID,
			OtherUserID: m.OtherUserID(r.Swipe.SwiperID),
			JobPostID:   m.JobPostID,
			Status:      m.Status,
			MatchedAt:   m.MatchedAt,
		}
	}
	return resp
}
