package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=user admin"`
	Name      string `json:"name" validate:"required"`
	StudentID string `json:"studentId" validate:"required_if=Role user"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetRequestBody struct {
	Email string `json:"email"`
}

type resetPasswordBody struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (a *App) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingRegisterData)
		return
	}
	if err := validate.Struct(req); err != nil {
		msg := msgMissingRegisterData
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) == 1 && verrs[0].Field() == "StudentID" {
			msg = msgMissingStudentID
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeInternal(w, "hash password", err)
		return
	}
	user := &User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Name:         req.Name,
		StudentID:    req.StudentID,
	}
	if err := a.Store.CreateUser(user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			writeError(w, http.StatusBadRequest, msgUserExists)
			return
		}
		writeInternal(w, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully!",
		"userId":  user.Email,
	})
}

func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	}

	user, err := a.Store.GetUser(req.Email)
	if err != nil {
		writeInternal(w, "login lookup", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	if !comparePassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, msgInvalidPassword)
		return
	}

	// increment only after the password check so failed attempts don't count
	count, err := a.Store.IncrementAPICount(user.Email)
	if err != nil {
		writeInternal(w, "increment api count", err)
		return
	}
	token, err := createAccessToken(user.Email, user.Role)
	if err != nil {
		writeInternal(w, "sign token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Login successful!",
		"token":     token,
		"userId":    user.Email,
		"email":     user.Email,
		"role":      user.Role,
		"apiCount":  count,
		"overQuota": count > a.Cfg.QuotaLimit,
	})
}

func (a *App) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, msgEmailRequired)
		return
	}
	user, err := a.Store.GetUser(email)
	if err != nil {
		writeInternal(w, "dashboard lookup", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	welcome := "Welcome User"
	if user.Role == RoleAdmin {
		welcome = "Welcome Admin"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  welcome,
		"userId":   user.Email,
		"email":    user.Email,
		"role":     user.Role,
		"apiCount": user.APICount,
	})
}

func (a *App) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, msgEmailRequired)
		return
	}
	link, err := a.RequestReset(req.Email)
	if err != nil {
		if errors.Is(err, errNoAccount) {
			writeError(w, http.StatusNotFound, msgNoAccount)
			return
		}
		writeInternal(w, "request reset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Reset link generated.",
		"link":    link,
	})
}

func (a *App) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgResetFieldsRequired)
		return
	}
	if req.Email == "" || req.Token == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, msgResetFieldsRequired)
		return
	}
	err := a.ConsumeReset(req.Email, req.Token, req.NewPassword)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been successfully reset."})
	case errors.Is(err, errNoAccount):
		writeError(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, errResetInvalid):
		writeError(w, http.StatusBadRequest, msgResetInvalid)
	case errors.Is(err, errWeakResetPassword):
		writeError(w, http.StatusBadRequest, msgResetFieldsRequired)
	default:
		writeInternal(w, "reset password", err)
	}
}
