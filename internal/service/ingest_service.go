package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"placement_test_backend/internal/config"
	"placement_test_backend/internal/model"
	"placement_test_backend/internal/webhook"
	"placement_test_backend/pkg/logger"
	"placement_test_backend/pkg/monitoring"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 平台侧自定义字段的固定槽位
const (
	slugStudentName = "quiz_attr_2"
	slugStudentID   = "quiz_attr_1"
	slugTesterName  = "quiz_attr_6"

	labelStudentName = "Student's Name"
	labelStudentID   = "Student's ID"
	labelTesterName  = "Tester's Name"
)

// 回给平台的文案是对外契约，不能改动
const (
	msgMissingPayload  = "Missing payload."
	msgMissingRequired = "Both result_id and quiz_title are required."
	msgUnexpectedError = "An unexpected error occurred."
)

// ResultStore 是 Ingest 依赖的最小持久化面，测试用假实现替换
type ResultStore interface {
	Upsert(derived *model.PlacementTestResult) (*model.PlacementTestResult, error)
}

// DeliveryStore 投递审计旁路
type DeliveryStore interface {
	Record(d *model.WebhookDelivery) error
}

// SubmitResponse webhook 的响应体，形状由外部平台约定
type SubmitResponse struct {
	Status   string `json:"status"`
	Docname  string `json:"docname,omitempty"`
	ResultID int64  `json:"result_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

type IngestService struct {
	store      ResultStore
	deliveries DeliveryStore
	storage    *StorageService
	redis      *redis.Client
	dedupTTL   atomic.Int64 // 纳秒；配置热更新会并发写
}

func NewIngestService(store ResultStore, deliveries DeliveryStore, storage *StorageService, rdb *redis.Client, cfg *config.Config) *IngestService {
	s := &IngestService{
		store:      store,
		deliveries: deliveries,
		storage:    storage,
		redis:      rdb,
	}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig 应用可热更新的配置项
func (s *IngestService) UpdateConfig(cfg *config.Config) {
	s.dedupTTL.Store(int64(time.Duration(cfg.Webhook.DedupTTLMinutes) * time.Minute))
}

func (s *IngestService) dedupWindow() time.Duration {
	return time.Duration(s.dedupTTL.Load())
}

// Ingest 一次投递的完整流程：解析 → 校验 → 派生 → upsert。
// 预期内的客户端错误以 status=error 返回，不向传输层抛错。
func (s *IngestService) Ingest(ctx context.Context, body []byte, form url.Values, clientIP string) SubmitResponse {
	payload, ok := webhook.ResolvePayload(body, form)
	if !ok {
		s.recordDelivery(model.DeliveryEmptyPayload, nil, msgMissingPayload, clientIP, len(body))
		return SubmitResponse{Status: "error", Message: msgMissingPayload}
	}

	resultID := webhook.ToInt(payload["result_id"])
	quizTitle := payload["quiz_title"]
	if resultID == nil || *resultID == 0 || webhook.IsEmpty(quizTitle) {
		s.recordDelivery(model.DeliveryMissingFields, resultID, msgMissingRequired, clientIP, len(body))
		return SubmitResponse{Status: "error", Message: msgMissingRequired}
	}

	// 审计用的原始报文：确定性的紧凑 JSON
	raw, err := json.Marshal(payload)
	if err != nil {
		// map 来自 json/url 解析，不会带不可序列化的值；保底走持久化错误分支
		logger.Log.Error("Failed to re-serialize webhook payload", zap.Error(err))
		return SubmitResponse{Status: "error", Message: msgUnexpectedError}
	}

	if resp, dup := s.checkDuplicate(ctx, *resultID, raw, clientIP); dup {
		return resp
	}

	derived := s.derive(payload, *resultID, webhook.Stringify(quizTitle), string(raw))

	rec, err := s.store.Upsert(derived)
	if err != nil {
		logger.Log.Error("Failed to persist placement test result",
			zap.Int64("result_id", *resultID),
			zap.String("client_ip", clientIP),
			zap.ByteString("payload", raw),
			zap.Error(err))
		s.recordDelivery(model.DeliveryPersistenceError, resultID, err.Error(), clientIP, len(body))
		return SubmitResponse{Status: "error", Message: msgUnexpectedError}
	}

	s.rememberDelivery(ctx, *resultID, raw, rec.Docname)
	if s.storage != nil {
		go s.storage.ArchivePayload(context.Background(), *resultID, raw)
	}
	s.recordDelivery(model.DeliverySuccess, resultID, "", clientIP, len(body))

	return SubmitResponse{Status: "success", Docname: rec.Docname, ResultID: *resultID}
}

// derive 把松散 payload 归一成记录；所有可选字段转换失败即为 nil，从不报错
func (s *IngestService) derive(payload webhook.Payload, resultID int64, quizTitle, raw string) *model.PlacementTestResult {
	return &model.PlacementTestResult{
		ResultID:          resultID,
		QuizTitle:         quizTitle,
		QuizID:            webhook.ToInt(payload["quiz_id"]),
		ScorePercentage:   webhook.ToFloat(payload["score_percentage"]),
		FinalScore:        webhook.ToFloat(payload["final_score"]),
		ScoreBy:           webhook.ToFloat(payload["score_by"]),
		ScoreType:         webhook.StringField(payload["score_type"]),
		Points:            webhook.ToFloat(payload["points"]),
		DurationSeconds:   webhook.ToInt(payload["duration_seconds"]),
		StartTime:         webhook.ToDatetime(payload["start_date"]),
		EndTime:           webhook.ToDatetime(payload["end_date"]),
		SubmittedAt:       webhook.ToDatetime(payload["submitted_at"]),
		StudentName:       webhook.ExtractCustomValue(payload, slugStudentName, labelStudentName),
		StudentID:         webhook.ExtractCustomValue(payload, slugStudentID, labelStudentID),
		TesterName:        webhook.ExtractCustomValue(payload, slugTesterName, labelTesterName),
		UserEmail:         webhook.NestedString(payload, "user", "email"),
		UserPhone:         webhook.NestedString(payload, "user", "phone"),
		UserIP:            webhook.StringField(payload["user_ip"]),
		IntegrationSource: webhook.StringField(payload["integration"]),
		RawPayload:        raw,
	}
}

// checkDuplicate 平台重试经常原样重发；字节级相同的投递直接用缓存应答，不再碰数据库
func (s *IngestService) checkDuplicate(ctx context.Context, resultID int64, raw []byte, clientIP string) (SubmitResponse, bool) {
	if s.redis == nil || s.dedupWindow() <= 0 {
		return SubmitResponse{}, false
	}
	v, err := s.redis.Get(ctx, dedupKey(resultID)).Result()
	if err != nil {
		return SubmitResponse{}, false
	}
	var cached struct {
		Hash    string `json:"hash"`
		Docname string `json:"docname"`
	}
	if json.Unmarshal([]byte(v), &cached) != nil || cached.Hash != payloadHash(raw) {
		return SubmitResponse{}, false
	}

	s.recordDelivery(model.DeliveryDuplicateSkipped, &resultID, "", clientIP, len(raw))
	return SubmitResponse{Status: "success", Docname: cached.Docname, ResultID: resultID}, true
}

func (s *IngestService) rememberDelivery(ctx context.Context, resultID int64, raw []byte, docname string) {
	ttl := s.dedupWindow()
	if s.redis == nil || ttl <= 0 {
		return
	}
	entry, _ := json.Marshal(map[string]string{
		"hash":    payloadHash(raw),
		"docname": docname,
	})
	if err := s.redis.Set(ctx, dedupKey(resultID), entry, ttl).Err(); err != nil {
		logger.Log.Warn("Failed to cache delivery fingerprint", zap.Error(err))
	}
}

func (s *IngestService) recordDelivery(outcome string, resultID *int64, message, clientIP string, bodyBytes int) {
	monitoring.IngestCounter.WithLabelValues(outcome).Inc()
	if s.deliveries == nil {
		return
	}
	d := &model.WebhookDelivery{
		Outcome:   outcome,
		ResultID:  resultID,
		Message:   message,
		ClientIP:  clientIP,
		BodyBytes: bodyBytes,
	}
	if err := s.deliveries.Record(d); err != nil {
		logger.Log.Warn("Failed to record webhook delivery", zap.Error(err))
	}
}

func payloadHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func dedupKey(resultID int64) string {
	return fmt.Sprintf("ingest:dedup:%d", resultID)
}
