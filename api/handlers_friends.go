package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// GET /v1/friends
func (app *Application) getFriends(w http.ResponseWriter, r *http.Request) {
	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	friends, err := app.EdgeRepo.ListForOwner(user.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"friends": friends,
	})
}

// GET /v1/friends/requests
func (app *Application) getFriendRequests(w http.ResponseWriter, r *http.Request) {
	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	requests, err := app.RequestRepo.ListForUser(user.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"requests": requests,
	})
}

// POST /v1/friends/search
func (app *Application) searchFriends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	if _, err := app.getUserFromToken(w, r); err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	results, err := app.Friends.SearchPublic(payload.Query)
	if err != nil {
		app.operationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"results": results,
	})
}

// POST /v1/friends/request
func (app *Application) sendFriendRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload struct {
		ToUID string `json:"toUid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	requestID, err := app.Friends.SendRequest(user.UserID, payload.ToUID)
	if err != nil {
		app.operationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"id":      requestID,
	})
}

// POST /v1/friends/accept
func (app *Application) acceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload struct {
		RequestID string `json:"requestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	if err := app.Friends.AcceptRequest(payload.RequestID, user.UserID); err != nil {
		app.operationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
	})
}

// POST /v1/friends/reject
func (app *Application) rejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload struct {
		RequestID string `json:"requestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	if err := app.Friends.RejectRequest(payload.RequestID, user.UserID); err != nil {
		app.operationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
	})
}

// POST /v1/friends/profile
func (app *Application) getFriendProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.requirePostMethod(w, r, ErrPOST)
		return
	}

	user, err := app.getUserFromToken(w, r)
	if err != nil {
		app.invalidAuthorization(w, r, err)
		return
	}

	var payload struct {
		FriendUID string `json:"friendUid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	if payload.FriendUID == "" {
		app.badRequest(w, r, errors.New("friendUid is required"))
		return
	}

	profile, err := app.Friends.GetFriendProfile(user.UserID, payload.FriendUID)
	if err != nil {
		// permission-denied here means "not a friend"; clients show the
		// public profile with a send-request affordance on that code.
		app.operationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"profile": profile,
	})
}
