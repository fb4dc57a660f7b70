package repository

import (
	"placement_test_backend/internal/model"

	"gorm.io/gorm"
)

type DeliveryRepository struct {
	DB *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{DB: db}
}

func (r *DeliveryRepository) Record(d *model.WebhookDelivery) error {
	return r.DB.Create(d).Error
}

func (r *DeliveryRepository) List(outcome string, page, limit int) ([]model.WebhookDelivery, int64, error) {
	var deliveries []model.WebhookDelivery
	var total int64

	query := r.DB.Model(&model.WebhookDelivery{})
	if outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}
	query.Count(&total)

	offset := (page - 1) * limit
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&deliveries).Error
	if err != nil {
		return nil, 0, err
	}
	return deliveries, total, nil
}
