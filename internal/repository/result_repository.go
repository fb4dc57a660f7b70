package repository

import (
	"context"
	"errors"
	"fmt"
	"placement_test_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type ResultRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewResultRepository(db *gorm.DB, rdb *redis.Client) *ResultRepository {
	return &ResultRepository{DB: db, Redis: rdb}
}

// Upsert 以 result_id 为幂等键落库。事务内先查后改；
// 并发首次投递撞上唯一索引时把冲突当作更新重试，保证同一 result_id 只有一行。
func (r *ResultRepository) Upsert(derived *model.PlacementTestResult) (*model.PlacementTestResult, error) {
	var rec model.PlacementTestResult

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("result_id = ?", derived.ResultID).First(&rec).Error
		if err == nil {
			MergeNonNull(&rec, derived)
			return tx.Save(&rec).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(derived).Error; err == nil {
			rec = *derived
			return nil
		} else if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		// 两个首次投递并发竞争，输家改走更新
		if err := tx.Where("result_id = ?", derived.ResultID).First(&rec).Error; err != nil {
			return err
		}
		MergeNonNull(&rec, derived)
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}

	r.cacheDocname(rec.ResultID, rec.Docname)
	return &rec, nil
}

func (r *ResultRepository) FindByResultID(resultID int64) (*model.PlacementTestResult, error) {
	var rec model.PlacementTestResult
	err := r.DB.Where("result_id = ?", resultID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *ResultRepository) FindByDocname(docname string) (*model.PlacementTestResult, error) {
	var rec model.PlacementTestResult
	err := r.DB.Where("docname = ?", docname).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *ResultRepository) List(quizID *int64, integration string, page, limit int) ([]model.PlacementTestResult, int64, error) {
	var results []model.PlacementTestResult
	var total int64

	query := r.DB.Model(&model.PlacementTestResult{})
	if quizID != nil {
		query = query.Where("quiz_id = ?", *quizID)
	}
	if integration != "" {
		query = query.Where("integration_source = ?", integration)
	}
	query.Count(&total)

	offset := (page - 1) * limit
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

const docnameCacheTTL = 6 * time.Hour

func (r *ResultRepository) cacheDocname(resultID int64, docname string) {
	if r.Redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Redis.Set(ctx, docnameCacheKey(resultID), docname, docnameCacheTTL)
}

// CachedDocname 只读缓存查询，缓存不可用时返回空串
func (r *ResultRepository) CachedDocname(ctx context.Context, resultID int64) string {
	if r.Redis == nil {
		return ""
	}
	v, err := r.Redis.Get(ctx, docnameCacheKey(resultID)).Result()
	if err != nil {
		return ""
	}
	return v
}

func docnameCacheKey(resultID int64) string {
	return fmt.Sprintf("ptr:docname:%d", resultID)
}

// MergeNonNull 只用非空派生值覆盖已有行；派生出的 nil 不得抹掉旧值
func MergeNonNull(dst, src *model.PlacementTestResult) {
	dst.QuizTitle = src.QuizTitle
	dst.RawPayload = src.RawPayload
	if src.QuizID != nil {
		dst.QuizID = src.QuizID
	}
	if src.ScorePercentage != nil {
		dst.ScorePercentage = src.ScorePercentage
	}
	if src.FinalScore != nil {
		dst.FinalScore = src.FinalScore
	}
	if src.ScoreBy != nil {
		dst.ScoreBy = src.ScoreBy
	}
	if src.ScoreType != nil {
		dst.ScoreType = src.ScoreType
	}
	if src.Points != nil {
		dst.Points = src.Points
	}
	if src.DurationSeconds != nil {
		dst.DurationSeconds = src.DurationSeconds
	}
	if src.StartTime != nil {
		dst.StartTime = src.StartTime
	}
	if src.EndTime != nil {
		dst.EndTime = src.EndTime
	}
	if src.SubmittedAt != nil {
		dst.SubmittedAt = src.SubmittedAt
	}
	if src.StudentName != nil {
		dst.StudentName = src.StudentName
	}
	if src.StudentID != nil {
		dst.StudentID = src.StudentID
	}
	if src.TesterName != nil {
		dst.TesterName = src.TesterName
	}
	if src.UserEmail != nil {
		dst.UserEmail = src.UserEmail
	}
	if src.UserPhone != nil {
		dst.UserPhone = src.UserPhone
	}
	if src.UserIP != nil {
		dst.UserIP = src.UserIP
	}
	if src.IntegrationSource != nil {
		dst.IntegrationSource = src.IntegrationSource
	}
}
