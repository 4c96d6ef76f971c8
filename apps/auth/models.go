package auth

import (
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"

	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/evo/v2/lib/generic"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/getevo/restify"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hlandau/passlib"
)

// JWT configuration
var JWTSecret []byte

// InitializeJWTSecret should be called during app initialization (Register or WhenReady)
func InitializeJWTSecret() {
	secret := settings.Get("JWT.SECRET").String()
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		log.Warning("JWT_SECRET not set, using development key. Change this in production!")
		secret = "dev-only-jwt-secret-change-me"
	}
	JWTSecret = []byte(secret)
}

// Claims is the JWT payload issued after a successful login
type Claims struct {
	Subject string `json:"sub_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

// Account represents a tenant of the platform. Accounts are keyed by a stable
// hash of the identity provider subject so the same external identity always
// maps to the same account id, no matter which login path created it.
type Account struct {
	AccountID    string     `gorm:"column:id;size:64;primaryKey" json:"id"`
	Subject      string     `gorm:"column:subject;size:255;uniqueIndex;not null" json:"-"`
	Email        string     `gorm:"column:email;size:255;index" json:"email"`
	Name         string     `gorm:"column:name;size:255" json:"name"`
	Picture      *string    `gorm:"column:picture;size:512" json:"picture,omitempty"`
	PasswordHash *string    `gorm:"column:password_hash;size:255" json:"-"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	restify.API
}

func (Account) TableName() string {
	return "accounts"
}

type AccountLoginHistory struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	AccountID string    `gorm:"column:account_id;size:64;not null;index" json:"account_id"`
	IPAddress string    `gorm:"column:ip_address;size:45;not null" json:"ip_address"`
	UserAgent string    `gorm:"column:user_agent;size:500" json:"user_agent"`
	LoginAt   time.Time `gorm:"column:login_at;autoCreateTime" json:"login_at"`
	Success   bool      `gorm:"column:success;not null" json:"success"`
	Reason    string    `gorm:"column:reason;size:255" json:"reason"`

	restify.API
}

func (AccountLoginHistory) TableName() string {
	return "account_login_history"
}

// SubjectAccountID derives the account id from an identity provider subject
// (e.g. "auth0|648a..."). FNV-1a keeps the id short and deterministic.
func SubjectAccountID(subject string) string {
	h := fnv.New64a()
	h.Write([]byte(subject))
	return fmt.Sprintf("acct_%016x", h.Sum64())
}

// UpsertAccount creates or refreshes the account for an identity provider
// subject and advances last_login. Safe to call on every authentication.
func UpsertAccount(subject, email, name, picture string) (*Account, error) {
	now := time.Now()
	var account Account
	err := db.Where("subject = ?", subject).First(&account).Error
	if err != nil {
		account = Account{
			AccountID: SubjectAccountID(subject),
			Subject:   subject,
			Email:     email,
			Name:      name,
			LastLogin: &now,
		}
		if picture != "" {
			account.Picture = &picture
		}
		if err := db.Create(&account).Error; err != nil {
			return nil, err
		}
		return &account, nil
	}

	if email != "" {
		account.Email = email
	}
	if name != "" {
		account.Name = name
	}
	if picture != "" && (account.Picture == nil || *account.Picture == "") {
		account.Picture = &picture
	}
	account.LastLogin = &now
	if err := db.Save(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// Evo UserInterface implementation
func (a *Account) GetFirstName() string {
	parts := strings.Fields(a.Name)
	if len(parts) > 0 {
		return parts[0]
	}
	return a.Name
}

func (a *Account) GetLastName() string {
	parts := strings.Fields(a.Name)
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return ""
}

func (a *Account) GetFullName() string {
	return a.Name
}

func (a *Account) GetEmail() string {
	return a.Email
}

func (a *Account) UUID() string {
	return a.AccountID
}

func (a *Account) ID() uint64 {
	h := fnv.New64a()
	h.Write([]byte(a.AccountID))
	return h.Sum64()
}

func (a *Account) Interface() interface{} {
	return a
}

func (a *Account) Anonymous() bool {
	return a.AccountID == ""
}

func (a *Account) HasPermission(permission string) bool {
	return !a.Anonymous()
}

func (a *Account) Attributes() evo.Attributes {
	var m evo.Attributes
	generic.Parse(a).Cast(&m)
	return m
}

// FromRequest resolves the account for a request. Resolution order: bearer
// token in the Authorization header, then the Authorization cookie, then the
// dev_user query parameter when AUTH.DEV_MODE is on. The first source that
// yields a valid identity wins.
func (a *Account) FromRequest(request *evo.Request) evo.UserInterface {
	token := request.Header("Authorization")
	if token == "" {
		token = request.Header("X-Authorization")
	}
	if token == "" {
		token = request.Cookie("Authorization")
	}

	if token != "" {
		tokenString := strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
		if account := accountFromJWT(tokenString); account != nil {
			return account
		}
	}

	if settings.Get("AUTH.DEV_MODE").Bool() {
		devUser := request.Query("dev_user").String()
		if devUser != "" {
			account, err := UpsertAccount("dev|"+devUser, devUser+"@localhost", devUser, "")
			if err != nil {
				log.Error("dev_user account upsert failed: %v", err)
				return a
			}
			return account
		}
	}

	return a
}

func accountFromJWT(tokenString string) *Account {
	if tokenString == "" || len(JWTSecret) == 0 {
		return nil
	}

	jwtToken, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return JWTSecret, nil
	})
	if err != nil || !jwtToken.Valid {
		log.Debug("JWT parsing error: %v", err)
		return nil
	}

	claims, ok := jwtToken.Claims.(*Claims)
	if !ok {
		return nil
	}

	var account Account
	if err := db.Where("subject = ?", claims.Subject).First(&account).Error; err != nil {
		log.Debug("no account for subject %s", claims.Subject)
		return nil
	}
	return &account
}

// Password utilities for the local dev login path
func (a *Account) SetPassword(password string) error {
	hash, err := passlib.Hash(password)
	if err != nil {
		return err
	}
	a.PasswordHash = &hash
	return nil
}

func (a *Account) VerifyPassword(password string) bool {
	if a.PasswordHash == nil {
		return false
	}
	_, err := passlib.Verify(password, *a.PasswordHash)
	return err == nil
}

// GenerateJWT issues a signed access token for the account
func (a *Account) GenerateJWT() (string, error) {
	claims := Claims{
		Subject: a.Subject,
		Email:   a.Email,
		Name:    a.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// RecordLogin creates a login history record
func (a *Account) RecordLogin(request *evo.Request, success bool, reason string) {
	ip := request.IP()
	if ip == "" {
		ip = "unknown"
	}

	userAgent := request.Header("User-Agent")
	if userAgent == "" {
		userAgent = "unknown"
	}

	history := AccountLoginHistory{
		AccountID: a.AccountID,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   success,
		Reason:    reason,
	}

	db.Create(&history)
}
