package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errInvalidToken = errors.New("invalid token")

type tokenClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (app *application) issueToken(u *user, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(app.config.jwt.secret))
}

// verifyToken checks the signature, expiry and token type. A token of
// the wrong type is rejected the same way as a forged one.
func (app *application) verifyToken(tokenStr, tokenType string) (*tokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(app.config.jwt.secret), nil
	})
	if err != nil {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, errInvalidToken
	}
	return claims, nil
}

func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	u, err := app.store.getUserByUsername(input.Username)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	if u == nil {
		writeError(w, errors.New("invalid credentials"), http.StatusUnauthorized)
		return
	}
	err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.Password))
	if err != nil {
		writeError(w, errors.New("invalid credentials"), http.StatusUnauthorized)
		return
	}
	access, err := app.issueToken(u, tokenTypeAccess, app.config.jwt.accessTTL)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	refresh, err := app.issueToken(u, tokenTypeRefresh, app.config.jwt.refreshTTL)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	tokens := struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}{
		Access:  access,
		Refresh: refresh,
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Refresh string `json:"refresh"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	claims, err := app.verifyToken(input.Refresh, tokenTypeRefresh)
	if err != nil {
		writeError(w, errInvalidToken, http.StatusUnauthorized)
		return
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		writeError(w, errInvalidToken, http.StatusUnauthorized)
		return
	}
	u, err := app.store.getUserByID(userID)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	if u == nil {
		writeError(w, errInvalidToken, http.StatusUnauthorized)
		return
	}
	access, err := app.issueToken(u, tokenTypeAccess, app.config.jwt.accessTTL)
	if err != nil {
		log.Println(err)
		writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	tokens := struct {
		Access string `json:"access"`
	}{
		Access: access,
	}
	writeJSON(w, http.StatusOK, tokens)
}
