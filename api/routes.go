package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /api/token/{$}", app.throttleByOrigin(app.createTokenHandler))
	mux.HandleFunc("POST /api/token/refresh/{$}", app.throttleByOrigin(app.refreshTokenHandler))

	mux.HandleFunc("POST /api/users/{$}", app.throttleByOrigin(app.createUserHandler))
	mux.HandleFunc("GET /api/users/{id}/{$}", app.requireAuth(app.throttleByUser(app.getUserHandler)))
	mux.HandleFunc("PUT /api/users/{id}/{$}", app.requireAuth(app.throttleByUser(app.updateUserHandler)))
	mux.HandleFunc("DELETE /api/users/{id}/{$}", app.requireAuth(app.throttleByUser(app.deleteUserHandler)))

	mux.HandleFunc("GET /api/tasks/{$}", app.requireAuth(app.throttleByUser(app.getTasksHandler)))
	mux.HandleFunc("POST /api/tasks/{$}", app.requireAuth(app.throttleByUser(app.createTaskHandler)))
	mux.HandleFunc("GET /api/tasks/{id}/{$}", app.requireAuth(app.throttleByUser(app.getTaskHandler)))
	mux.HandleFunc("PUT /api/tasks/{id}/{$}", app.requireAuth(app.throttleByUser(app.updateTaskHandler)))
	mux.HandleFunc("DELETE /api/tasks/{id}/{$}", app.requireAuth(app.throttleByUser(app.deleteTaskHandler)))

	var handler http.Handler = mux
	if app.config.limiter.enabled {
		handler = app.rateLimit(handler)
	}
	return app.enableCORS(handler)
}
