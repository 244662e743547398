package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/models"
	"github.com/achievement-hub/api/pkg/logger"
)

// GET /
func (app *Application) home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Achievement Hub API")
}

// POST /v1/auth/signup
func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	userSignup := &models.UserSignupRequest{}
	errParsingJson := json.NewDecoder(r.Body).Decode(userSignup)
	if errParsingJson != nil {
		app.badJSONRequest(w, r, errParsingJson)
		return
	}

	if strings.TrimSpace(userSignup.DisplayName) == "" {
		app.badRequest(w, r, errors.New("displayName is required"))
		return
	}
	if userSignup.Email == "" || userSignup.Password == "" {
		app.badRequest(w, r, errors.New("email and password are required"))
		return
	}

	// Create new user
	newUser, newUserErr := models.NewUser(*userSignup)
	if newUserErr != nil {
		app.internalServerError(w, r, newUserErr)
		return
	}

	// Check if email already exists
	_, getErr := app.UserRepo.GetUserByEmail(newUser.Email)
	if getErr == nil {
		app.userAlreadyExists(w, r, getErr)
		return
	}

	// Store new user in database
	storedUser, errStoringNewUser := app.UserRepo.Create(newUser)
	if errStoringNewUser != nil {
		app.internalServerError(w, r, errStoringNewUser)
		return
	}

	// The public profile is what makes the user targetable by friend
	// requests and searchable; created on first sign-up.
	profile, profileErr := app.ProfileRepo.Upsert(models.PublicProfile{
		UserID:      storedUser.UserID,
		DisplayName: strings.TrimSpace(userSignup.DisplayName),
	})
	if profileErr != nil {
		app.internalServerError(w, r, profileErr)
		return
	}

	logger.Info("user signed up", "uid", storedUser.UserID)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user":    storedUser,
		"profile": profile,
	})
}

// POST /v1/auth/login
func (app *Application) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	creds := &models.Credentials{}
	if err := json.NewDecoder(r.Body).Decode(creds); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	user, err := app.UserRepo.ValidateAndGetUser(*creds)
	if err != nil {
		app.invalidCredentials(w, r, err)
		return
	}

	accessExpiry := time.Now().Add(time.Second * time.Duration(app.Config.JwtAccessDuration))

	accessClaims := models.JWTClaims{
		UserID:    user.UserID,
		Email:     user.Email,
		Kind:      user.Kind,
		Scope:     "authentication",
		TokenType: models.JWT.ACCESS_COOKIE_NAME,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(app.Config.JwtSecret))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	sameSite := http.SameSiteStrictMode
	if app.Config.JwtDomain == "" {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     models.JWT.ACCESS_COOKIE_NAME,
		Value:    accessTokenString,
		Path:     "/",
		Domain:   app.Config.JwtDomain,
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   !app.Config.DevMode,
		SameSite: sameSite,
	})

	// Sign-in starts the realtime sync session for this user.
	if err := app.EnsureSession(user.UserID); err != nil {
		logger.Warn("failed to start sync session", "uid", user.UserID, "error", err)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user":        user,
		"accessToken": accessTokenString,
		"expiry":      accessExpiry,
	})
}

// POST /v1/auth/logout
func (app *Application) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	// Session teardown detaches listeners and clears the local caches.
	app.CloseSession(user.UserID)

	http.SetCookie(w, &http.Cookie{
		Name:     models.JWT.ACCESS_COOKIE_NAME,
		Value:    "",
		Path:     "/",
		Domain:   app.Config.JwtDomain,
		MaxAge:   -1,
		HttpOnly: true,
	})

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
	})
}

// GET /v1/users/me
func (app *Application) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	response := map[string]interface{}{
		"user": user,
	}

	profile, profileErr := app.ProfileRepo.Get(user.UserID)
	if profileErr == nil {
		response["profile"] = profile
	} else if !datastore.IsNoRows(profileErr) {
		app.internalServerError(w, r, profileErr)
		return
	}

	progress, progressErr := app.ProgressRepo.Get(user.UserID)
	if progressErr == nil {
		response["progress"] = progress
	} else if !datastore.IsNoRows(progressErr) {
		app.internalServerError(w, r, progressErr)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// POST /v1/users/me/update
func (app *Application) updateCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload models.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	if strings.TrimSpace(payload.DisplayName) == "" {
		app.badRequest(w, r, errors.New("displayName is required"))
		return
	}

	profile, upsertErr := app.ProfileRepo.Upsert(models.PublicProfile{
		UserID:      user.UserID,
		DisplayName: strings.TrimSpace(payload.DisplayName),
		PhotoURL:    payload.PhotoURL,
	})
	if upsertErr != nil {
		app.internalServerError(w, r, upsertErr)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(profile)
}
