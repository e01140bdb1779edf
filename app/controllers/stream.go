package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"task-calendar/app/live"
)

// streamStates relays states to the client as server-sent events until the
// request ends. open starts a view that renders through emit and returns the
// func that closes it.
func streamStates[S any](w http.ResponseWriter, r *http.Request, open func(ctx context.Context, emit func(S)) (func(), error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	states := make(chan S, 16)
	emit := func(st S) {
		select {
		case states <- st:
		case <-ctx.Done():
		}
	}

	closeView, err := open(ctx, emit)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("stream opened: %s", r.URL.Path)
	defer func() {
		closeView()
		log.Printf("stream closed: %s", r.URL.Path)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case st := <-states:
			data, err := json.Marshal(st)
			if err != nil {
				log.Printf("encoding stream state: %v", err)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// StreamMonth handles GET /months/{month}/stream.
func (c *TaskController) StreamMonth(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	streamStates(w, r, func(ctx context.Context, emit func(live.MonthState)) (func(), error) {
		view := live.NewMonthView(c.service(r), emit)
		if err := view.SetMonth(ctx, month); err != nil {
			view.Close()
			return nil, err
		}
		return view.Close, nil
	})
}

// StreamDay handles GET /months/{month}/days/{day}/stream.
func (c *TaskController) StreamDay(w http.ResponseWriter, r *http.Request) {
	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "Invalid day", http.StatusBadRequest)
		return
	}
	month := mux.Vars(r)["month"]
	streamStates(w, r, func(ctx context.Context, emit func(live.DayState)) (func(), error) {
		view := live.NewDayView(c.service(r), emit)
		if err := view.SetDay(ctx, month, day); err != nil {
			view.Close()
			return nil, err
		}
		return view.Close, nil
	})
}
