package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

// decodeTask reads a task from the request body and validates every
// writable field, collecting all violations so the client sees them in a
// single response. On failure it writes the error response and returns
// ok = false. The id and timestamps are never taken from the body.
func (app *application) decodeTask(w http.ResponseWriter, r *http.Request) (*task, bool) {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		DueDate     string `json:"due_date"`
		Status      string `json:"status"`
		AssignedTo  int    `json:"assigned_to"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return nil, false
	}

	v := newValidator()
	v.checkTitle(input.Title)
	due := v.checkDueDate(input.DueDate)
	if input.Status == "" {
		input.Status = statusPending
	}
	v.checkStatus(input.Status)

	var assignee *user
	if input.AssignedTo == 0 {
		v.checkCond(false, "assigned_to", "must be provided")
	} else {
		assignee, err = app.store.getUserByID(input.AssignedTo)
		if err != nil {
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
			return nil, false
		}
		v.checkCond(assignee != nil, "assigned_to", "must reference an existing user")
	}

	if v.hasErrors() {
		writeValidatorErrors(w, v)
		return nil, false
	}

	t := &task{
		Title:              input.Title,
		Description:        input.Description,
		DueDate:            dueDate{due},
		Status:             input.Status,
		AssignedTo:         assignee.ID,
		AssignedToUsername: assignee.Username,
	}
	return t, true
}
