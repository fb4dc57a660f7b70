package model

import "gorm.io/gorm"

// 投递结果分类，对应 webhook 返回给平台的三类结局
const (
	DeliverySuccess          = "success"
	DeliveryEmptyPayload     = "empty_payload"
	DeliveryMissingFields    = "missing_fields"
	DeliveryPersistenceError = "persistence_error"
	DeliveryDuplicateSkipped = "duplicate_skipped"
)

// WebhookDelivery 每次投递的审计记录，旁路写入，失败不影响主流程
type WebhookDelivery struct {
	gorm.Model
	Outcome   string `gorm:"size:32;index;not null" json:"outcome"`
	ResultID  *int64 `gorm:"index" json:"result_id,omitempty"`
	Message   string `gorm:"size:255" json:"message,omitempty"`
	ClientIP  string `gorm:"size:64" json:"client_ip,omitempty"`
	BodyBytes int    `json:"body_bytes"`
}

func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
