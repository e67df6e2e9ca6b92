package main

import (
	"encoding/json"
	"net/http"
)

// GET /admin/stats
func (a *App) HandleAdminStats(w http.ResponseWriter, r *http.Request) {
	if id := a.requireAdmin(w, r); id == nil {
		return
	}
	users, err := a.Store.ListUsers()
	if err != nil {
		writeInternal(w, "list users", err)
		return
	}
	usage := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		usage = append(usage, map[string]interface{}{
			"email":    u.Email,
			"role":     u.Role,
			"apiCount": u.APICount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": usage})
}

// GET /admin/api-stats
func (a *App) HandleAPIStats(w http.ResponseWriter, r *http.Request) {
	if id := a.requireAdmin(w, r); id == nil {
		return
	}
	stats, err := a.Store.ListEndpointStats()
	if err != nil {
		writeInternal(w, "list endpoint stats", err)
		return
	}
	endpoints := make([]map[string]interface{}, 0, len(stats))
	for _, s := range stats {
		endpoints = append(endpoints, map[string]interface{}{
			"method":   s.Method,
			"endpoint": s.Endpoint,
			"count":    s.Count,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"endpoints": endpoints})
}

type userTargetBody struct {
	AdminEmail string `json:"adminEmail"`
	UserEmail  string `json:"userEmail"`
}

// DELETE /admin/delete-user
func (a *App) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := a.requireAdmin(w, r)
	if id == nil {
		return
	}
	var req userTargetBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserEmail == "" {
		writeError(w, http.StatusBadRequest, msgEmailRequired)
		return
	}
	if req.UserEmail == id.Email {
		writeError(w, http.StatusBadRequest, msgCannotDeleteSelf)
		return
	}
	if err := a.Store.DeleteUser(req.UserEmail); err != nil {
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		writeInternal(w, "delete user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully!"})
}

// PATCH /admin/update-role
func (a *App) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id := a.requireAdmin(w, r)
	if id == nil {
		return
	}
	var req userTargetBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserEmail == "" {
		writeError(w, http.StatusBadRequest, msgEmailRequired)
		return
	}
	target, err := a.Store.GetUser(req.UserEmail)
	if err != nil {
		writeInternal(w, "role lookup", err)
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	// promotion only, mirroring the admin console
	if err := a.Store.UpdateRole(req.UserEmail, RoleAdmin); err != nil {
		writeInternal(w, "update role", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User role updated successfully!"})
}
