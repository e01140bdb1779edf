package controllers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"task-calendar/app/dates"
	"task-calendar/app/models"
	"task-calendar/app/progress"
	"task-calendar/app/services"
	"task-calendar/app/store"
)

// TaskController handles HTTP requests for the calendar's tasks.
type TaskController struct {
	Backend  store.Backend
	validate *validator.Validate
}

// NewTaskController creates a new TaskController.
func NewTaskController(backend store.Backend) *TaskController {
	return &TaskController{Backend: backend, validate: validator.New()}
}

// service binds the backend to the request's session.
func (c *TaskController) service(r *http.Request) *services.TaskService {
	return services.NewTaskService(c.Backend, sessionFrom(r.Context()))
}

type titleRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type checkRequest struct {
	Checked *bool `json:"checked" validate:"required"`
}

type calendarResponse struct {
	Month        string `json:"month"`
	Label        string `json:"label"`
	DaysInMonth  int    `json:"days_in_month"`
	FirstWeekday int    `json:"first_weekday"`
	Previous     string `json:"previous"`
	Next         string `json:"next"`
}

type progressResponse struct {
	Month   string              `json:"month"`
	Scores  []models.DailyScore `json:"scores"`
	Summary progress.Summary    `json:"summary"`
	Message string              `json:"message,omitempty"`
}

// GetCalendar handles GET /calendar/{month}.
func (c *TaskController) GetCalendar(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	first, err := dates.ParseMonthKey(month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, calendarResponse{
		Month:        month,
		Label:        dates.FormatMonthYear(first),
		DaysInMonth:  dates.DaysInMonth(first),
		FirstWeekday: int(first.Weekday()),
		Previous:     dates.MonthKey(dates.PreviousMonth(first)),
		Next:         dates.MonthKey(dates.NextMonth(first)),
	})
}

// GetRecurringTasks handles GET /months/{month}/tasks.
func (c *TaskController) GetRecurringTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := c.service(r).RecurringTasks(r.Context(), mux.Vars(r)["month"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateRecurringTask handles POST /months/{month}/tasks.
func (c *TaskController) CreateRecurringTask(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !decode(r, c.validate, &req) {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := c.service(r).AddRecurringTask(r.Context(), mux.Vars(r)["month"], req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// DeleteRecurringTask handles DELETE /months/{month}/tasks/{taskID}. Deleting
// a task that is already gone is not an error.
func (c *TaskController) DeleteRecurringTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := c.service(r).DeleteRecurringTask(r.Context(), vars["month"], vars["taskID"])
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCheck handles PUT /months/{month}/tasks/{taskID}/checks/{day}.
func (c *TaskController) SetCheck(w http.ResponseWriter, r *http.Request) {
	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "Invalid day", http.StatusBadRequest)
		return
	}
	var req checkRequest
	if !decode(r, c.validate, &req) {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	if err := c.service(r).SetCheck(r.Context(), vars["month"], vars["taskID"], day, *req.Checked); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProgress handles GET /months/{month}/progress.
func (c *TaskController) GetProgress(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	tasks, err := c.service(r).RecurringTasks(r.Context(), month)
	if err != nil {
		writeError(w, err)
		return
	}

	days, _ := dates.DaysInMonthKey(month)
	scores := progress.ComputeDailyScores(tasks, days)
	resp := progressResponse{
		Month:   month,
		Scores:  scores,
		Summary: progress.Summarize(scores),
	}
	if len(scores) == 0 {
		resp.Message = progress.EmptyMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDailyTasks handles GET /months/{month}/days/{day}/tasks.
func (c *TaskController) GetDailyTasks(w http.ResponseWriter, r *http.Request) {
	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "Invalid day", http.StatusBadRequest)
		return
	}
	tasks, err := c.service(r).DailyTasks(r.Context(), mux.Vars(r)["month"], day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateDailyTask handles POST /months/{month}/days/{day}/tasks.
func (c *TaskController) CreateDailyTask(w http.ResponseWriter, r *http.Request) {
	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "Invalid day", http.StatusBadRequest)
		return
	}
	var req titleRequest
	if !decode(r, c.validate, &req) {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := c.service(r).AddDailyTask(r.Context(), mux.Vars(r)["month"], day, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// ToggleDailyTask handles POST /months/{month}/days/{day}/tasks/{taskID}/toggle.
func (c *TaskController) ToggleDailyTask(w http.ResponseWriter, r *http.Request) {
	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "Invalid day", http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	if err := c.service(r).ToggleDailyTask(r.Context(), vars["month"], day, vars["taskID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDailyTask handles DELETE /months/{month}/days/{day}/tasks/{taskID}.
func (c *TaskController) DeleteDailyTask(w http.ResponseWriter, r *http.Request) {
	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "Invalid day", http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	err := c.service(r).DeleteDailyTask(r.Context(), vars["month"], day, vars["taskID"])
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
