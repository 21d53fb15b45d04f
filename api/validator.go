package main

import (
	"regexp"
	"time"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

type validator struct {
	errors map[string]string
}

func newValidator() *validator {
	return &validator{
		errors: make(map[string]string),
	}
}

func (v *validator) hasErrors() bool {
	return len(v.errors) != 0
}

func (v *validator) checkCond(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *validator) checkUsername(username string) {
	v.checkCond(username != "", "username", "must be provided")
	v.checkCond(len(username) <= 255, "username", "must be atmost 255 characters long")
}

func (v *validator) checkEmail(email string) {
	v.checkCond(emailRegexp.Match([]byte(email)), "email", "must be a valid email address")
}

func (v *validator) checkPassword(password string) {
	v.checkCond(password != "", "password", "must be provided")
	v.checkCond(len(password) >= 8, "password", "must be atleast 8 characters long")
	v.checkCond(len(password) <= 72, "password", "must be atmost 72 characters long")
}

func (v *validator) checkTitle(title string) {
	v.checkCond(title != "", "title", "must be provided")
	v.checkCond(len(title) <= 255, "title", "must be atmost 255 characters long")
}

// checkDueDate parses s as a calendar date, recording a field error on
// failure. The zero time is returned when the date is invalid.
func (v *validator) checkDueDate(s string) time.Time {
	if s == "" {
		v.checkCond(false, "due_date", "must be provided")
		return time.Time{}
	}
	t, err := time.Parse(dueDateLayout, s)
	if err != nil {
		v.checkCond(false, "due_date", "must be a valid date in YYYY-MM-DD format")
		return time.Time{}
	}
	return t
}

func (v *validator) checkStatus(status string) {
	switch status {
	case statusPending, statusInProgress, statusCompleted:
	default:
		v.checkCond(false, "status", "must be one of pending, in_progress or completed")
	}
}
