package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillswipe/internal/database"
	"skillswipe/internal/profile"
)

// ProfileHandler 暴露开发者与公司资料接口。
type ProfileHandler struct {
	profiles *profile.Service
	urls     assetURLs
}

func NewProfileHandler(profiles *profile.Service, storage objectStorage, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{profiles: profiles, urls: assetURLs{storage: storage, logger: logger}}
}

func (h *ProfileHandler) developerJSON(c *gin.Context, status int, p *database.DeveloperProfile) {
	c.JSON(status, h.urls.developer(c.Request.Context(), profile.NewPublicDeveloper(*p)))
}

func (h *ProfileHandler) companyJSON(c *gin.Context, status int, co *database.CompanyProfile) {
	c.JSON(status, h.urls.company(c.Request.Context(), profile.NewPublicCompany(*co)))
}

// CreateDeveloper 创建当前账号的开发者资料。
func (h *ProfileHandler) CreateDeveloper(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in profile.DeveloperInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	p, err := h.profiles.CreateDeveloper(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.developerJSON(c, http.StatusCreated, p)
}

func (h *ProfileHandler) GetMyDeveloper(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	p, err := h.profiles.DeveloperForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.developerJSON(c, http.StatusOK, p)
}

func (h *ProfileHandler) UpdateMyDeveloper(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in profile.DeveloperInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	p, err := h.profiles.UpdateDeveloper(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.developerJSON(c, http.StatusOK, p)
}

func (h *ProfileHandler) ListDevelopers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	list, err := h.profiles.ListDevelopers(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]profile.PublicDeveloper, 0, len(list))
	for _, p := range list {
		out = append(out, profile.NewPublicDeveloper(p))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": h.urls.developers(ctx, out)})
}

func (h *ProfileHandler) GetDeveloper(c *gin.Context) {
	p, err := h.profiles.GetDeveloper(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.developerJSON(c, http.StatusOK, p)
}

// CreateCompany 创建公司资料，当前账号成为 admin。
func (h *ProfileHandler) CreateCompany(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in profile.CompanyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	co, err := h.profiles.CreateCompany(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.companyJSON(c, http.StatusCreated, co)
}

func (h *ProfileHandler) GetMyCompany(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	co, err := h.profiles.CompanyForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.companyJSON(c, http.StatusOK, co)
}

func (h *ProfileHandler) UpdateMyCompany(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in profile.CompanyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	co, err := h.profiles.UpdateCompany(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.companyJSON(c, http.StatusOK, co)
}

func (h *ProfileHandler) ListCompanies(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	list, err := h.profiles.ListCompanies(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]profile.PublicCompany, 0, len(list))
	for _, co := range list {
		out = append(out, h.urls.company(ctx, profile.NewPublicCompany(co)))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

func (h *ProfileHandler) GetCompany(c *gin.Context) {
	co, err := h.profiles.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.companyJSON(c, http.StatusOK, co)
}

func (h *ProfileHandler) ListMembers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	members, err := h.profiles.Members(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(members), "results": members})
}

type addMemberRequest struct {
	UserID string              `json:"user_id" binding:"required"`
	Role   database.MemberRole `json:"role" binding:"required"`
}

func (h *ProfileHandler) AddMember(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	member, err := h.profiles.AddMember(c.Request.Context(), userID, c.Param("id"), req.UserID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_id":    member.UserID,
		"company_id": member.CompanyID,
		"role":       member.Role,
		"joined_at":  member.JoinedAt,
	})
}
