package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"task-calendar/app/auth"
	"task-calendar/app/controllers"
)

// RegisterRoutes sets up all routes for the application. Every route needs
// a verified identity.
func RegisterRoutes(router *mux.Router, taskController *controllers.TaskController, verifier auth.Verifier) {
	router.Use(controllers.Logger)

	api := router.NewRoute().Subrouter()
	api.Use(controllers.Authenticate(verifier))

	api.HandleFunc("/calendar/{month}", taskController.GetCalendar).Methods(http.MethodGet)

	api.HandleFunc("/months/{month}/tasks", taskController.GetRecurringTasks).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/tasks", taskController.CreateRecurringTask).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/tasks/{taskID}", taskController.DeleteRecurringTask).Methods(http.MethodDelete)
	api.HandleFunc("/months/{month}/tasks/{taskID}/checks/{day}", taskController.SetCheck).Methods(http.MethodPut)
	api.HandleFunc("/months/{month}/progress", taskController.GetProgress).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/stream", taskController.StreamMonth).Methods(http.MethodGet)

	api.HandleFunc("/months/{month}/days/{day}/tasks", taskController.GetDailyTasks).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/days/{day}/tasks", taskController.CreateDailyTask).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/days/{day}/tasks/{taskID}/toggle", taskController.ToggleDailyTask).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/days/{day}/tasks/{taskID}", taskController.DeleteDailyTask).Methods(http.MethodDelete)
	api.HandleFunc("/months/{month}/days/{day}/stream", taskController.StreamDay).Methods(http.MethodGet)
}
