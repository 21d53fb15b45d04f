package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
)

type taskListResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []*task `json:"results"`
}

func (app *application) getTasksHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	v := newValidator()
	f := taskFilters{
		page:     1,
		pageSize: app.config.pageSize,
	}
	if status := query.Get("status"); status != "" {
		v.checkStatus(status)
		f.status = status
	}
	if due := query.Get("due_date"); due != "" {
		f.dueDate = v.checkDueDate(due)
	}
	// unknown ordering values are ignored, matching the original API
	switch query.Get("ordering") {
	case "due_date", "-due_date":
		f.ordering = query.Get("ordering")
	}
	if v.hasErrors() {
		writeValidatorErrors(w, v)
		return
	}

	if pageStr := query.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			writeError(w, errors.New("invalid page"), http.StatusNotFound)
			return
		}
		f.page = page
	}

	tasks, total, err := app.store.getTasks(f)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	if f.page > 1 && (f.page-1)*f.pageSize >= total {
		writeError(w, errors.New("invalid page"), http.StatusNotFound)
		return
	}

	resp := taskListResponse{
		Count:   total,
		Results: tasks,
	}
	if f.page*f.pageSize < total {
		next := pageURL(r, f.page+1)
		resp.Next = &next
	}
	if f.page > 1 {
		previous := pageURL(r, f.page-1)
		resp.Previous = &previous
	}
	writeJSON(w, http.StatusOK, resp)
}

func pageURL(r *http.Request, page int) string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := app.decodeTask(w, r)
	if !ok {
		return
	}
	err := app.store.insertTask(t)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	t, err := app.store.getTaskByID(id)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	if t == nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// updateTaskHandler replaces every writable field of the task. Partial
// updates are not supported.
func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	existing, err := app.store.getTaskByID(id)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	if existing == nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	t, ok := app.decodeTask(w, r)
	if !ok {
		return
	}
	t.ID = existing.ID
	t.CreatedAt = existing.CreatedAt
	err = app.store.updateTask(t)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	deleted, err := app.store.deleteTask(id)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	if !deleted {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
