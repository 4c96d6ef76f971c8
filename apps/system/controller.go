package system

import (
	"strings"
	"time"

	"github.com/botdeck/botdeck-backend/apps/auth"
	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/botdeck/botdeck-backend/lib/response"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/settings"
)

type Controller struct {
}

// HealthHandler reports service liveness
func (c Controller) HealthHandler(req *evo.Request) any {
	return response.OK(map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// UptimeHandler reports time since process start
func (c Controller) UptimeHandler(req *evo.Request) any {
	return response.OK(map[string]any{
		"started": StartupTime.UTC(),
		"uptime":  time.Since(StartupTime).String(),
	})
}

// AdminMiddleware restricts a route group to operator accounts, listed by
// email in ADMIN.EMAILS (comma-separated).
func (c Controller) AdminMiddleware(req *evo.Request) any {
	account, ok := req.User().(*auth.Account)
	if !ok || account.Anonymous() {
		return response.Error(response.ErrUnauthorized)
	}

	admins := settings.Get("ADMIN.EMAILS").String()
	for _, email := range strings.Split(admins, ",") {
		if strings.EqualFold(strings.TrimSpace(email), account.Email) {
			return req.Next()
		}
	}
	return response.Error(response.ErrAccessDenied)
}

// GetSettings returns all runtime settings, optionally filtered by category
func (c Controller) GetSettings(req *evo.Request) any {
	category := req.Query("category").String()
	if category != "" {
		items, err := models.GetSettingsByCategory(category)
		if err != nil {
			return response.Error(response.ErrDatabaseError)
		}
		return response.List(items, len(items))
	}

	items, err := models.GetAllSettings()
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	return response.List(items, len(items))
}

// UpdateSettings applies multiple setting values atomically
func (c Controller) UpdateSettings(req *evo.Request) any {
	var updates map[string]string
	if err := req.BodyParser(&updates); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if len(updates) == 0 {
		return response.BadRequest("No settings provided")
	}

	if err := models.UpdateSettings(updates); err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	return response.Message("Settings updated")
}

// GetSetting returns one setting by key
func (c Controller) GetSetting(req *evo.Request) any {
	setting, err := models.GetSetting(req.Param("key").String())
	if err != nil {
		return response.Error(response.ErrNotFound)
	}
	return response.OK(setting)
}

// SetSetting creates or updates one setting
func (c Controller) SetSetting(req *evo.Request) any {
	var body struct {
		Value    string `json:"value"`
		Type     string `json:"type"`
		Category string `json:"category"`
		Label    string `json:"label"`
	}
	if err := req.BodyParser(&body); err != nil {
		return response.Error(response.ErrInvalidInput)
	}

	key := req.Param("key").String()
	if err := models.SetSetting(key, body.Value, body.Type, body.Category, body.Label); err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	return response.Message("Setting saved")
}

// DeleteSetting removes one setting
func (c Controller) DeleteSetting(req *evo.Request) any {
	if err := models.DeleteSetting(req.Param("key").String()); err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	return response.Message("Setting deleted")
}
