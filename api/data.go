package main

import (
	"fmt"
	"strings"
	"time"
)

const (
	statusPending    = "pending"
	statusInProgress = "in_progress"
	statusCompleted  = "completed"
)

const dueDateLayout = "2006-01-02"

// dueDate is a calendar date that marshals as "YYYY-MM-DD".
type dueDate struct {
	time.Time
}

func (d dueDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dueDateLayout) + `"`), nil
}

func (d *dueDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	t, err := time.Parse(dueDateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: must be YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

type user struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Version      int       `json:"-"`
}

type task struct {
	ID                 int       `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	DueDate            dueDate   `json:"due_date"`
	Status             string    `json:"status"`
	AssignedTo         int       `json:"assigned_to"`
	AssignedToUsername string    `json:"assigned_to_username"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
