package auth

import (
	"testing"
	"time"

	"github.com/getevo/evo/v2/lib/db"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the shared db handle at a fresh in-memory database.
func setupTestDB(t *testing.T) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, gdb.AutoMigrate(&Account{}, &AccountLoginHistory{}))
	db.Register(gdb)
}

func TestUpsertAccount_IdempotentPerSubject(t *testing.T) {
	setupTestDB(t)

	first, err := UpsertAccount("auth0|abc123", "ada@example.com", "Ada", "")
	assert.NoError(t, err)
	assert.Equal(t, SubjectAccountID("auth0|abc123"), first.AccountID)
	assert.NotNil(t, first.LastLogin)
	firstLogin := *first.LastLogin

	time.Sleep(10 * time.Millisecond)

	second, err := UpsertAccount("auth0|abc123", "ada@example.com", "Ada Lovelace", "")
	assert.NoError(t, err)
	assert.Equal(t, first.AccountID, second.AccountID)
	assert.Equal(t, "Ada Lovelace", second.Name)
	assert.NotNil(t, second.LastLogin)
	assert.True(t, second.LastLogin.After(firstLogin), "last_login must advance on every authentication")

	var count int64
	assert.NoError(t, db.Model(&Account{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "repeated logins must not create duplicate accounts")
}

func TestUpsertAccount_BlankProfileFieldsKeepStoredValues(t *testing.T) {
	setupTestDB(t)

	_, err := UpsertAccount("auth0|xyz", "m@example.com", "Madonna", "https://cdn.example.com/m.png")
	assert.NoError(t, err)

	account, err := UpsertAccount("auth0|xyz", "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "m@example.com", account.Email)
	assert.Equal(t, "Madonna", account.Name)
	assert.NotNil(t, account.Picture)
	assert.Equal(t, "https://cdn.example.com/m.png", *account.Picture)
}

func TestUpsertAccount_DistinctSubjectsGetDistinctAccounts(t *testing.T) {
	setupTestDB(t)

	a, err := UpsertAccount("auth0|one", "one@example.com", "One", "")
	assert.NoError(t, err)
	b, err := UpsertAccount("auth0|two", "two@example.com", "Two", "")
	assert.NoError(t, err)
	assert.NotEqual(t, a.AccountID, b.AccountID)
}
