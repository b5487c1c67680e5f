package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrCredentialsMissing 登录请求缺少邮箱或密码
	ErrCredentialsMissing = errors.New("email and password are required")
	// ErrInvalidCredentials 邮箱不在白名单或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
)

// AuthConfig 在构造时注入，服务内部不读取任何全局凭据。
type AuthConfig struct {
	AdminEmails  []string
	PasswordHash string
	Secret       []byte
	// TokenTTL 为 0 时签发的 token 不过期
	TokenTTL time.Duration
}

// Claims 是管理员 token 的载荷
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LoginResult 登录成功后的返回
type LoginResult struct {
	Token string `json:"id_token"`
	User  string `json:"user"`
}

// AuthService 签发并校验共享管理员身份的 token。
type AuthService struct {
	emails       map[string]struct{}
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewAuthService 构造 AuthService。
func NewAuthService(cfg AuthConfig) *AuthService {
	emails := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		if normalized := normalizeEmail(email); normalized != "" {
			emails[normalized] = struct{}{}
		}
	}
	return &AuthService{
		emails:       emails,
		passwordHash: []byte(strings.TrimSpace(cfg.PasswordHash)),
		secret:       cfg.Secret,
		ttl:          cfg.TokenTTL,
		now:          time.Now,
	}
}

// Login 校验邮箱白名单与共享密码，成功后签发 token。
func (s *AuthService) Login(email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrCredentialsMissing
	}

	_, allowed := s.emails[email]
	if len(s.passwordHash) == 0 || len(s.secret) == 0 {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil || !allowed {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.issue(email)
	if err != nil {
		return LoginResult{}, err
	}

	user, _, _ := strings.Cut(email, "@")
	return LoginResult{Token: token, User: user}, nil
}

// Verify 校验 token 签名与有效期，并确认邮箱仍在白名单内。
func (s *AuthService) Verify(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrTokenInvalid
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if _, ok := s.emails[normalizeEmail(claims.Email)]; !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *AuthService) issue(email string) (string, error) {
	now := s.now()
	registered := jwt.RegisteredClaims{
		Subject:  email,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.ttl > 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: email, RegisteredClaims: registered})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
