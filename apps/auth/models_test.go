package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestSubjectAccountID_Deterministic(t *testing.T) {
	a := SubjectAccountID("auth0|648a1b2c3d4e5f")
	b := SubjectAccountID("auth0|648a1b2c3d4e5f")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "acct_"))
	assert.Len(t, a, len("acct_")+16)
}

func TestSubjectAccountID_DistinctSubjects(t *testing.T) {
	assert.NotEqual(t, SubjectAccountID("auth0|user-one"), SubjectAccountID("auth0|user-two"))
	assert.NotEqual(t, SubjectAccountID("local|a@b.com"), SubjectAccountID("auth0|a@b.com"))
}

func TestAccount_NameParts(t *testing.T) {
	account := &Account{Name: "Ada Lovelace King"}
	assert.Equal(t, "Ada", account.GetFirstName())
	assert.Equal(t, "King", account.GetLastName())
	assert.Equal(t, "Ada Lovelace King", account.GetFullName())

	single := &Account{Name: "Madonna"}
	assert.Equal(t, "Madonna", single.GetFirstName())
	assert.Equal(t, "", single.GetLastName())

	empty := &Account{}
	assert.Equal(t, "", empty.GetFirstName())
}

func TestAccount_Anonymous(t *testing.T) {
	assert.True(t, (&Account{}).Anonymous())
	assert.False(t, (&Account{AccountID: "acct_0000000000000001"}).Anonymous())

	assert.False(t, (&Account{}).HasPermission("agents.read"))
	assert.True(t, (&Account{AccountID: "acct_0000000000000001"}).HasPermission("agents.read"))
}

func TestAccount_PasswordRoundTrip(t *testing.T) {
	account := &Account{AccountID: "acct_test"}
	assert.False(t, account.VerifyPassword("anything"), "no hash set yet")

	assert.NoError(t, account.SetPassword("s3cret-pass"))
	assert.NotNil(t, account.PasswordHash)
	assert.NotContains(t, *account.PasswordHash, "s3cret-pass")

	assert.True(t, account.VerifyPassword("s3cret-pass"))
	assert.False(t, account.VerifyPassword("wrong-pass"))
}

func TestAccount_GenerateJWT(t *testing.T) {
	JWTSecret = []byte("test-secret-for-token-signing")
	t.Cleanup(func() { JWTSecret = nil })

	account := &Account{
		AccountID: "acct_0000000000000001",
		Subject:   "auth0|user-one",
		Email:     "one@example.com",
		Name:      "User One",
	}

	tokenString, err := account.GenerateJWT()
	assert.NoError(t, err)

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})
	assert.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "auth0|user-one", claims.Subject)
	assert.Equal(t, "one@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}
