package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillswipe/internal/database"
	"skillswipe/internal/jobs"
	"skillswipe/internal/profile"
)

// filterQuery 是职位列表与发现流共用的查询参数。
type filterQuery struct {
	Location   string `form:"location"`
	JobType    string `form:"job_type"`
	WorkMode   string `form:"work_mode"`
	Experience string `form:"experience"`
	Tech       string `form:"tech"`
	MinSalary  *int   `form:"min_salary"`
	MaxSalary  *int   `form:"max_salary"`
}

func (q filterQuery) filter() jobs.Filter {
	return jobs.Filter{
		Location:   q.Location,
		JobType:    database.JobType(q.JobType),
		WorkMode:   database.WorkMode(q.WorkMode),
		Experience: database.ExperienceLevel(q.Experience),
		Tech:       q.Tech,
		MinSalary:  q.MinSalary,
		MaxSalary:  q.MaxSalary,
	}
}

func bindFilter(c *gin.Context) (jobs.Filter, bool) {
	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, err.Error())
		return jobs.Filter{}, false
	}
	return q.filter(), true
}

// JobHandler 暴露职位发布与查询接口。
type JobHandler struct {
	jobs     *jobs.Service
	profiles *profile.Service
}

func NewJobHandler(jobService *jobs.Service, profiles *profile.Service) *JobHandler {
	return &JobHandler{jobs: jobService, profiles: profiles}
}

// viewer 返回开发者自己的资料，用于计算匹配分；其他角色返回 nil。
func (h *JobHandler) viewer(c *gin.Context, userID string) *database.DeveloperProfile {
	if roleFromContext(c) != database.RoleDeveloper {
		return nil
	}
	p, err := h.profiles.DeveloperForUser(c.Request.Context(), userID)
	if err != nil {
		return nil
	}
	return p
}

func (h *JobHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in jobs.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	job, err := h.jobs.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, jobs.NewCard(*job, nil))
}

// List 列出职位，manage=true 时列出本公司的全部职位。
func (h *JobHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	manage := c.Query("manage") == "true"
	list, err := h.jobs.List(c.Request.Context(), userID, f, manage)
	if err != nil {
		respondError(c, err)
		return
	}
	var dev *database.DeveloperProfile
	if !manage {
		dev = h.viewer(c, userID)
	}
	cards := jobs.NewCards(list, dev)
	c.JSON(http.StatusOK, gin.H{"count": len(cards), "results": cards})
}

func (h *JobHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs.NewCard(*job, h.viewer(c, userID)))
}

func (h *JobHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in jobs.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	job, err := h.jobs.Update(c.Request.Context(), userID, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs.NewCard(*job, nil))
}

// Close 关闭职位，DELETE 同样映射到这里。
func (h *JobHandler) Close(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	job, err := h.jobs.Close(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs.NewCard(*job, nil))
}

func (h *JobHandler) Statistics(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	stats, err := h.jobs.Statistics(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
