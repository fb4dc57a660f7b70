package controller

import (
	"io"
	"net/http"
	"net/url"
	"placement_test_backend/internal/config"
	"placement_test_backend/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

type WebhookController struct {
	ingest *service.IngestService
	cfg    *config.Config
}

func NewWebhookController(ingest *service.IngestService, cfg *config.Config) *WebhookController {
	return &WebhookController{ingest: ingest, cfg: cfg}
}

// SubmitQuizResult godoc
// @Summary 接收测评平台的测验结果
// @Description 匿名回调端点，接受 JSON 或表单编码的结果推送，按 result_id 幂等入库。预期内的错误以 status=error 返回，HTTP 状态码恒为 200。
// @Tags webhook
// @Accept json
// @Produce json
// @Param body body map[string]interface{} true "平台推送的结果数据"
// @Success 200 {object} service.SubmitResponse
// @Router /api/webhooks/quiz-result [post]
func (c *WebhookController) SubmitQuizResult(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, c.cfg.Webhook.MaxBodyBytes))
	if err != nil {
		body = nil
	}

	// 请求体已被读走，表单需从字节自行解析；query 参数一并并入
	form := url.Values{}
	if strings.HasPrefix(ctx.ContentType(), "application/x-www-form-urlencoded") {
		if parsed, err := url.ParseQuery(string(body)); err == nil {
			form = parsed
		}
	}
	for key, values := range ctx.Request.URL.Query() {
		if _, exists := form[key]; !exists {
			form[key] = values
		}
	}

	resp := c.ingest.Ingest(ctx.Request.Context(), body, form, ctx.ClientIP())
	ctx.JSON(http.StatusOK, resp)
}
