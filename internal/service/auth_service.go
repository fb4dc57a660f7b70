package service

import (
	"placement_test_backend/internal/config"
	"placement_test_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// AuthService 运维端令牌换取。服务没有用户体系：
// 配置里只存一把 API Key 的 bcrypt 哈希，校验通过后签发短期 JWT。
type AuthService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

func (s *AuthService) IssueToken(apiKey string) (string, error) {
	if s.cfg.Auth.APIKeyHash == "" {
		return "", util.ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Auth.APIKeyHash), []byte(apiKey)); err != nil {
		return "", util.ErrInvalidAPIKey
	}
	return util.GenerateJWT("operator", s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
}
