package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

func (app *application) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkUsername(input.Username)
	if input.Email != "" {
		v.checkEmail(input.Email)
	}
	v.checkPassword(input.Password)
	if v.hasErrors() {
		writeValidatorErrors(w, v)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	u := &user{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}
	err = app.store.insertUser(u)
	if err != nil {
		switch {
		case errors.Is(err, errDuplicateUsername):
			v.checkCond(false, "username", "is already taken")
			writeValidatorErrors(w, v)
		default:
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		}
		return
	}
	if app.mailer != nil && u.Email != "" {
		go func() {
			err := app.mailer.sendWelcome(u)
			if err != nil {
				log.Println(err)
			}
		}()
	}
	writeJSON(w, http.StatusCreated, u)
}

func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	u, err := app.store.getUserByID(id)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	if u == nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	u, err := app.store.getUserByID(id)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	if u == nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err = json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkUsername(input.Username)
	if input.Email != "" {
		v.checkEmail(input.Email)
	}
	v.checkPassword(input.Password)
	if v.hasErrors() {
		writeValidatorErrors(w, v)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	u.Username = input.Username
	u.Email = input.Email
	u.PasswordHash = hash
	err = app.store.updateUser(u)
	if err != nil {
		switch {
		case errors.Is(err, errDuplicateUsername):
			v.checkCond(false, "username", "is already taken")
			writeValidatorErrors(w, v)
		default:
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// deleteUserHandler removes the user and, through the cascade on the
// assigned_to constraint, every task assigned to them.
func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, errNotFound, http.StatusNotFound)
		return
	}
	deleted, err := app.store.deleteUser(id)
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
