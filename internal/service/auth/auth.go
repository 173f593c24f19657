// Package auth 提供密码认证与 JWT 访问令牌。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashwinyue/fastagent/internal/config"
	"github.com/ashwinyue/fastagent/internal/model"
)

// 认证错误
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInactiveUser       = errors.New("user is inactive")
)

// UserStore 用户查询接口，由 repository.UserRepository 实现
type UserStore interface {
	GetByID(id uint) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
}

// Service 认证服务
type Service struct {
	users       UserStore
	secret      []byte
	tokenExpiry time.Duration
}

// NewService 创建认证服务。密钥未配置时生成随机密钥，重启后旧令牌失效。
func NewService(users UserStore, cfg *config.Config) *Service {
	secret := cfg.Auth.SecretKey
	if secret == "" {
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			panic(fmt.Sprintf("failed to generate JWT secret: %v", err))
		}
		secret = base64.StdEncoding.EncodeToString(randomBytes)
	}

	return &Service{
		users:       users,
		secret:      []byte(secret),
		tokenExpiry: time.Duration(cfg.Auth.AccessTokenMinutes) * time.Minute,
	}
}

// Authenticate 校验用户名与密码
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// CreateAccessToken 签发访问令牌
func (s *Service) CreateAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"exp": now.Add(s.tokenExpiry).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken 校验令牌并返回对应用户
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(uint(userID))
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}
