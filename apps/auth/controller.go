package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/botdeck/botdeck-backend/lib/response"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
)

type Controller struct {
}

// LoginResponse is returned by the local credential login
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	Account     *Account `json:"account"`
}

// DevLoginRequest is the local credential login payload
type DevLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login starts the Auth0 authorization flow. With the mock identity provider
// enabled, it short-circuits straight to the callback with a synthetic code.
func (c Controller) Login(req *evo.Request) any {
	redirectURL := req.Query("redirect_url").String()
	if redirectURL == "" {
		redirectURL = "/"
	}

	if MockEnabled() {
		return req.Redirect("/api/auth/callback?code=mock&state=" + c.generateStateWithRedirect(redirectURL))
	}

	if Auth0OAuthConfig.ClientID == "" {
		return response.Error(response.NewError(response.ErrorCodeInternalError, "Auth0 is not configured", 503))
	}

	var url = req.URL()
	Auth0OAuthConfig.RedirectURL = url.Scheme + "://" + url.Host + "/api/auth/callback"

	state := c.generateStateWithRedirect(redirectURL)
	return req.Redirect(Auth0OAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

// Callback handles the Auth0 redirect: exchanges the code, upserts the
// account and sets the session cookie.
func (c Controller) Callback(req *evo.Request) any {
	code := req.Query("code").String()
	state := req.Query("state").String()
	redirectURL := c.extractRedirectFromState(state)

	if code == "" {
		return req.Redirect(redirectURL + "?auth=error&message=authorization%20code%20is%20required")
	}

	var info *Auth0UserInfo
	if MockEnabled() {
		info = c.mockUserInfo(req)
	} else {
		token, err := Auth0OAuthConfig.Exchange(context.Background(), code)
		if err != nil {
			log.Error("auth0 code exchange failed: %v", err)
			return req.Redirect(redirectURL + "?auth=error&message=code%20exchange%20failed")
		}
		info, err = FetchUserInfo(context.Background(), token)
		if err != nil {
			log.Error("auth0 userinfo failed: %v", err)
			return req.Redirect(redirectURL + "?auth=error&message=failed%20to%20load%20profile")
		}
	}

	account, err := UpsertAccount(info.Sub, info.Email, info.Name, info.Picture)
	if err != nil {
		log.Error("account upsert failed: %v", err)
		return req.Redirect(redirectURL + "?auth=error&message=account%20creation%20failed")
	}

	accessToken, err := account.GenerateJWT()
	if err != nil {
		log.Error("JWT generation failed: %v", err)
		return req.Redirect(redirectURL + "?auth=error&message=token%20generation%20failed")
	}

	account.RecordLogin(req, true, "auth0_callback")

	req.Context.Cookie(&fiber.Cookie{
		Name:     "Authorization",
		Value:    "Bearer " + accessToken,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return req.Redirect(redirectURL + "?auth=success")
}

// Logout clears the session cookie
func (c Controller) Logout(req *evo.Request) any {
	req.Context.Cookie(&fiber.Cookie{
		Name:     "Authorization",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return response.Message("Logged out")
}

// DevLogin authenticates against locally stored credentials. Intended for
// development and CI, where no Auth0 tenant exists.
func (c Controller) DevLogin(req *evo.Request) any {
	var params DevLoginRequest
	if err := req.BodyParser(&params); err != nil {
		return response.Error(response.ErrInvalidInput)
	}

	subject := "local|" + params.Email
	account, err := UpsertAccount(subject, params.Email, params.Email, "")
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	if account.PasswordHash == nil {
		// First login sets the password
		if err := account.SetPassword(params.Password); err != nil {
			return response.Error(response.ErrInternalError)
		}
		if err := db.Save(account).Error; err != nil {
			return response.Error(response.ErrDatabaseError)
		}
	} else if !account.VerifyPassword(params.Password) {
		account.RecordLogin(req, false, "invalid_password")
		return response.Error(response.NewError(response.ErrorCodeUnauthorized, "Invalid email or password", 401))
	}

	accessToken, err := account.GenerateJWT()
	if err != nil {
		return response.Error(response.ErrInternalError)
	}

	account.RecordLogin(req, true, "dev_login")

	return response.OK(LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   86400, // 24 hours
		Account:     account,
	})
}

// GetProfile returns the current account
func (c Controller) GetProfile(req *evo.Request) any {
	account, ok := req.User().(*Account)
	if !ok || account.Anonymous() {
		return response.Error(response.ErrUnauthorized)
	}
	return response.OK(account)
}

// mockUserInfo builds a synthetic identity. The dev_user query parameter
// selects the subject so tests can simulate distinct tenants.
func (c Controller) mockUserInfo(req *evo.Request) *Auth0UserInfo {
	name := req.Query("dev_user").String()
	if name == "" {
		name = "dev"
	}
	return &Auth0UserInfo{
		Sub:     "auth0|mock-" + name,
		Email:   name + "@example.com",
		Name:    name,
		Picture: "",
	}
}

func (c Controller) generateState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// generateStateWithRedirect embeds the post-login redirect URL in the state
func (c Controller) generateStateWithRedirect(redirectURL string) string {
	stateData := map[string]string{
		"random":       c.generateState(),
		"redirect_url": redirectURL,
	}

	jsonData, err := json.Marshal(stateData)
	if err != nil {
		log.Error("failed to marshal state data: %v", err)
		return c.generateState()
	}

	return base64.URLEncoding.EncodeToString(jsonData)
}

func (c Controller) extractRedirectFromState(state string) string {
	decoded, err := base64.URLEncoding.DecodeString(state)
	if err != nil {
		return "/"
	}

	var stateData map[string]string
	if err := json.Unmarshal(decoded, &stateData); err != nil {
		return "/"
	}

	if redirectURL, ok := stateData["redirect_url"]; ok && redirectURL != "" {
		return redirectURL
	}
	return "/"
}
