package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"
)

const resetTokenBytes = 20

var (
	errNoAccount         = errors.New("no account for email")
	errResetInvalid      = errors.New("reset token invalid or expired")
	errWeakResetPassword = errors.New("new password empty")
)

// RequestReset generates a reset token, persists it with its expiry on the
// user record and attempts out-of-band delivery. Delivery failure is tolerated:
// the link is returned to the caller either way.
func (a *App) RequestReset(email string) (string, error) {
	user, err := a.Store.GetUser(email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errNoAccount
	}

	token, err := genToken(resetTokenBytes)
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(a.Cfg.ResetTokenTTL).Unix()
	if err := a.Store.SetResetToken(email, token, expiresAt); err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s?token=%s&email=%s", a.Cfg.ResetBaseURL, token, url.QueryEscape(email))
	if err := a.Mailer.SendResetLink(email, link); err != nil {
		log.Printf("reset email to %s failed: %v", email, err)
	}
	return link, nil
}

// ConsumeReset validates a reset token and, on success, overwrites the stored
// hash and clears both reset fields in a single store update. A mismatched or
// expired token rejects without touching the password.
func (a *App) ConsumeReset(email, token, newPassword string) error {
	if newPassword == "" {
		return errWeakResetPassword
	}
	user, err := a.Store.GetUser(email)
	if err != nil {
		return err
	}
	if user == nil {
		return errNoAccount
	}
	if !user.ResetPending() || user.ResetToken != token {
		return errResetInvalid
	}
	if time.Now().Unix() > user.ResetTokenExpiry {
		// the stale token can never be used again, drop it
		if err := a.Store.ClearResetToken(email); err != nil {
			log.Printf("clearing expired reset token for %s: %v", email, err)
		}
		return errResetInvalid
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return a.Store.ResetPassword(email, hash)
}
