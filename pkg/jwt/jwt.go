package jwt

import (
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"lms-classroom/backend/config"
)

var (
	ErrTokenExpired      = errors.New("token 已过期")
	ErrTokenInvalid      = errors.New("token 无效")
	ErrTokenMissingClaim = errors.New("token 缺少 sub 或 role 声明")
)

// signingAlgorithm 与认证服务约定的固定签名算法
const signingAlgorithm = "HS256"

// Claims 认证服务签发的令牌声明：sub 为用户 ID，role 为全局角色
type Claims struct {
	Role string `json:"role"`
	jwtv5.RegisteredClaims
}

// Manager 令牌校验器
// 令牌由认证服务签发，这里只做无状态校验，不负责签发与刷新
type Manager struct {
	secret []byte
	parser *jwtv5.Parser
}

// NewManager 创建令牌校验器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		parser: jwtv5.NewParser(jwtv5.WithValidMethods([]string{signingAlgorithm})),
	}
}

// ParseToken 校验签名并提取声明，sub 与 role 必须同时存在且非空
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := m.parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, ErrTokenMissingClaim
	}

	return claims, nil
}
