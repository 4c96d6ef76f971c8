package models

import (
	"testing"

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
	assert.NoError(t, gdb.AutoMigrate(&Agent{}, &PluginConfig{}))
	db.Register(gdb)
}

func TestUpsertPluginConfig_SecondSaveUpdatesInPlace(t *testing.T) {
	setupTestDB(t)

	first := &PluginConfig{
		PluginID: "whatsapp-business",
		UserID:   "acct_1",
		AgentID:  "agent-1",
		Platform: "whatsapp",
		Config:   "cipher-1",
		Enabled:  true,
	}
	assert.NoError(t, UpsertPluginConfig(first))
	assert.NotEmpty(t, first.ID)

	second := &PluginConfig{
		PluginID: "whatsapp-business",
		UserID:   "acct_1",
		AgentID:  "agent-1",
		Platform: "whatsapp",
		Config:   "cipher-2",
	}
	assert.NoError(t, UpsertPluginConfig(second))
	assert.Equal(t, first.ID, second.ID, "same key must update the existing row")

	var rows []PluginConfig
	assert.NoError(t, db.Find(&rows).Error)
	assert.Len(t, rows, 1)
	assert.Equal(t, "cipher-2", rows[0].Config)
	assert.False(t, rows[0].Enabled)
}

func TestUpsertPluginConfig_DistinctAgentsGetDistinctRows(t *testing.T) {
	setupTestDB(t)

	assert.NoError(t, UpsertPluginConfig(&PluginConfig{
		PluginID: "whatsapp-business", UserID: "acct_1", AgentID: "agent-1", Platform: "whatsapp",
	}))
	assert.NoError(t, UpsertPluginConfig(&PluginConfig{
		PluginID: "whatsapp-business", UserID: "acct_1", AgentID: "agent-2", Platform: "whatsapp",
	}))

	var count int64
	assert.NoError(t, db.Model(&PluginConfig{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestGetPluginConfigFor_ScopedToOwner(t *testing.T) {
	setupTestDB(t)

	assert.NoError(t, UpsertPluginConfig(&PluginConfig{
		PluginID: "telegram-bot", UserID: "acct_owner", AgentID: "agent-1", Platform: "telegram",
	}))

	row, err := GetPluginConfigFor("telegram-bot", "acct_owner", "agent-1")
	assert.NoError(t, err)
	assert.Equal(t, "acct_owner", row.UserID)

	_, err = GetPluginConfigFor("telegram-bot", "acct_other", "agent-1")
	assert.Error(t, err, "a foreign account must not see the row")
}

func TestGetEnabledConfigsForPlatform_SkipsDisabledRows(t *testing.T) {
	setupTestDB(t)

	assert.NoError(t, UpsertPluginConfig(&PluginConfig{
		PluginID: "whatsapp-business", UserID: "acct_1", AgentID: "agent-1", Platform: "whatsapp", Enabled: true,
	}))
	assert.NoError(t, UpsertPluginConfig(&PluginConfig{
		PluginID: "whatsapp-business", UserID: "acct_2", AgentID: "agent-2", Platform: "whatsapp",
		Enabled: false, LastError: "driver initialization failed",
	}))

	rows, err := GetEnabledConfigsForPlatform("whatsapp")
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "agent-1", rows[0].AgentID)
}
