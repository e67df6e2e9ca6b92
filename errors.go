package main

import (
	"encoding/json"
	"log"
	"net/http"
)

// User-visible messages are fixed strings; internal error text is logged only.
const (
	msgMissingCredentials  = "Email and password are required."
	msgMissingRegisterData = "Email, password, role, and name are required."
	msgMissingStudentID    = "Student ID is required for the user role."
	msgUserExists          = "User already exists."
	msgUserNotFound        = "User not found."
	msgInvalidPassword     = "Invalid password."
	msgEmailRequired       = "Email is required."
	msgNoAccount           = "No account with that email exists."
	msgResetFieldsRequired = "All fields are required."
	msgResetInvalid        = "Reset link is invalid or has expired."
	msgNoToken             = "Unauthorized: No token provided"
	msgBadToken            = "Unauthorized: Invalid or expired token"
	msgAdminNotFound       = "Admin user not found."
	msgAdminsOnly          = "Access denied. Admins only."
	msgCannotDeleteSelf    = "Admins cannot delete their own account."
	msgInternal            = "Something went wrong. Please try again."
	msgRateLimited         = "Too many requests. Please slow down."
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeInternal logs the underlying error and returns the fixed message.
func writeInternal(w http.ResponseWriter, context string, err error) {
	log.Printf("%s: %v", context, err)
	writeError(w, http.StatusInternalServerError, msgInternal)
}
