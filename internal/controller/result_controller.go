package controller

import (
	"errors"
	"fmt"
	"placement_test_backend/internal/service"
	"placement_test_backend/internal/util"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ResultController struct {
	service *service.ResultService
}

func NewResultController(s *service.ResultService) *ResultController {
	return &ResultController{service: s}
}

// ListResults godoc
// @Summary 分页查询已入库的测验结果
// @Tags 测验结果
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(20)
// @Param quiz_id query int false "按测验ID筛选"
// @Param integration query string false "按来源平台筛选"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/results [get]
func (c *ResultController) ListResults(ctx *gin.Context) {
	page := util.QueryInt(ctx.Query("page"), 1)
	limit := util.QueryInt(ctx.Query("limit"), 20)

	var quizID *int64
	if raw := ctx.Query("quiz_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			util.BadRequest(ctx, "invalid quiz_id")
			return
		}
		quizID = &id
	}

	results, total, err := c.service.ListResults(quizID, ctx.Query("integration"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  results,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetResult godoc
// @Summary 按 docname 查询单条测验结果
// @Tags 测验结果
// @Produce json
// @Security ApiKeyAuth
// @Param docname path string true "记录标识"
// @Success 200 {object} util.Response{data=model.PlacementTestResult}
// @Router /api/results/{docname} [get]
func (c *ResultController) GetResult(ctx *gin.Context) {
	rec, err := c.service.GetByDocname(ctx.Param("docname"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}

// ExportResults godoc
// @Summary 导出测验结果为 Excel
// @Tags 测验结果
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Param quiz_id query int false "按测验ID筛选"
// @Param integration query string false "按来源平台筛选"
// @Success 200 {file} binary
// @Router /api/results/export [get]
func (c *ResultController) ExportResults(ctx *gin.Context) {
	var quizID *int64
	if raw := ctx.Query("quiz_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			util.BadRequest(ctx, "invalid quiz_id")
			return
		}
		quizID = &id
	}

	data, err := c.service.ExportResultsExcel(quizID, ctx.Query("integration"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := fmt.Sprintf("placement_results_%s.xlsx", time.Now().Format("20060102_150405"))
	ctx.Header("Content-Disposition", "attachment; filename="+filename)
	ctx.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ListDeliveries godoc
// @Summary 分页查询 webhook 投递审计记录
// @Tags 测验结果
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(20)
// @Param outcome query string false "按结局筛选 success/empty_payload/missing_fields/persistence_error/duplicate_skipped"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/deliveries [get]
func (c *ResultController) ListDeliveries(ctx *gin.Context) {
	page := util.QueryInt(ctx.Query("page"), 1)
	limit := util.QueryInt(ctx.Query("limit"), 20)

	deliveries, total, err := c.service.ListDeliveries(ctx.Query("outcome"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  deliveries,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
