package jwt

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"lms-classroom/backend/config"
)

const testSecret = "test-secret-key-for-unit-testing-2026"

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{JWTSecret: testSecret})
}

// sign 模拟认证服务签发令牌
func sign(t *testing.T, method jwtv5.SigningMethod, key interface{}, claims jwtv5.Claims) string {
	t.Helper()
	s, err := jwtv5.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("签发测试令牌失败: %v", err)
	}
	return s
}

func validClaims(sub, role string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		Role: role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   sub,
			Issuer:    "lms-auth-service",
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
}

func TestParseToken_Success(t *testing.T) {
	m := newTestManager()
	token := sign(t, jwtv5.SigningMethodHS256, []byte(testSecret), validClaims("user-1", "instructor", time.Hour))

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("期望 Subject=user-1，实际=%s", claims.Subject)
	}
	if claims.Role != "instructor" {
		t.Errorf("期望 Role=instructor，实际=%s", claims.Role)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	if _, err := m.ParseToken("invalid.token.string"); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m := newTestManager()
	token := sign(t, jwtv5.SigningMethodHS256, []byte("different-secret-key"), validClaims("user-1", "student", time.Hour))

	if _, err := m.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("不同密钥签名的 token 不应通过验证，实际: %v", err)
	}
}

func TestParseToken_WrongAlgorithm(t *testing.T) {
	m := newTestManager()
	// HS512 同属 HMAC，但不是约定的算法
	token := sign(t, jwtv5.SigningMethodHS512, []byte(testSecret), validClaims("user-1", "student", time.Hour))

	if _, err := m.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("非 HS256 签名的 token 不应通过验证，实际: %v", err)
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := newTestManager()
	token := sign(t, jwtv5.SigningMethodHS256, []byte(testSecret), validClaims("user-1", "student", -time.Minute))

	if _, err := m.ParseToken(token); err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestParseToken_MissingClaims(t *testing.T) {
	m := newTestManager()

	tests := []struct {
		name   string
		claims Claims
	}{
		{name: "缺少 sub", claims: validClaims("", "student", time.Hour)},
		{name: "缺少 role", claims: validClaims("user-1", "", time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := sign(t, jwtv5.SigningMethodHS256, []byte(testSecret), tt.claims)
			if _, err := m.ParseToken(token); err != ErrTokenMissingClaim {
				t.Errorf("期望 ErrTokenMissingClaim，实际: %v", err)
			}
		})
	}
}
