package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"emotiondiary/internal/classifier"
)

type emotionView struct {
	Label   string
	Score   float64
	Percent string
}

type analysisView struct {
	ID       int64
	Text     string
	Emotions []emotionView
}

func emotionViews(scores classifier.Scores) []emotionView {
	ranked := scores.Ranked()
	views := make([]emotionView, len(ranked))
	for i, ls := range ranked {
		views[i] = emotionView{Label: ls.Label, Score: ls.Score, Percent: percent(ls.Score)}
	}
	return views
}

// GET /: the current user's past analyses
func (a *App) indexHandler(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	analyses, err := a.analyses.ListForUser(r.Context(), user.ID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	views := make([]analysisView, len(analyses))
	for i, an := range analyses {
		views[i] = analysisView{ID: an.ID, Text: an.Text, Emotions: emotionViews(DecodeScores(an.EmotionStats))}
	}

	a.render(w, r, "index.html", map[string]any{
		"current_user": user.Username,
		"analyses":     views,
	})
}

// POST /: classify submitted text and store the result
func (a *App) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	text := r.FormValue("text")
	if text == "" {
		a.addFlash(w, r, "danger", "Please enter some text to analyze.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	prediction := a.classifier.Predict(r.Context(), text)

	saved := false
	if prediction.OK() {
		an, err := a.analyses.Create(r.Context(), user.ID, text, prediction.Scores)
		if err != nil {
			a.log.Error(r.Context(), "failed to store analysis", "user_id", user.ID, "error", err)
		} else {
			saved = true
			a.log.Info(r.Context(), "analysis stored", "user_id", user.ID, "analysis_id", an.ID)
		}
	}

	if wantsJSON(r) {
		a.writeJSON(w, r, analyzeJSON{Text: text, EmotionPredictions: prediction.AsMap(), Saved: saved})
		return
	}

	a.render(w, r, "index.html", map[string]any{
		"current_user":     user.Username,
		"text":             text,
		"submitted":        true,
		"saved":            saved,
		"prediction_error": prediction.Message(),
		"error_key":        classifier.ErrorKey,
		"emotions":         emotionViews(prediction.Scores),
	})
}

type analyzeJSON struct {
	Text               string         `json:"text"`
	EmotionPredictions map[string]any `json:"emotion_predictions"`
	Saved              bool           `json:"saved"`
}

type analysisJSON struct {
	ID           int64             `json:"id"`
	Text         string            `json:"text"`
	EmotionStats classifier.Scores `json:"emotion_stats"`
}

// GET /api/analyses
func (a *App) apiAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	analyses, err := a.analyses.ListForUser(r.Context(), user.ID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	out := make([]analysisJSON, len(analyses))
	for i, an := range analyses {
		out[i] = analysisJSON{ID: an.ID, Text: an.Text, EmotionStats: DecodeScores(an.EmotionStats)}
	}

	a.writeJSON(w, r, out)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (a *App) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error(r.Context(), "failed to write response", "error", err)
	}
}

// GET + POST /login
func (a *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")

	if r.Method == http.MethodGet && a.currentUser(r) != nil {
		http.Redirect(w, r, safeNext(next), http.StatusFound)
		return
	}

	errorMsg := ""
	if r.Method == http.MethodPost {
		username := r.FormValue("username")
		password := r.FormValue("password")
		if username == "" || password == "" {
			a.addFlash(w, r, "danger", "Please enter a username and password")
			http.Redirect(w, r, r.URL.RequestURI(), http.StatusFound)
			return
		}

		user, err := a.users.Authenticate(r.Context(), username, password)
		switch {
		case err == nil:
			if err := a.logIn(w, r, user); err != nil {
				a.serverError(w, r, err)
				return
			}
			a.log.Info(r.Context(), "user logged in", "user_id", user.ID)
			a.addFlash(w, r, "success", "Login successful!")
			http.Redirect(w, r, safeNext(next), http.StatusFound)
			return
		case errors.Is(err, ErrInvalidCredentials):
			errorMsg = "Login unsuccessful. Please check username and password."
		default:
			a.serverError(w, r, err)
			return
		}
	}

	action := "/login"
	if next != "" {
		action += "?next=" + url.QueryEscape(next)
	}
	a.render(w, r, "login.html", map[string]any{
		"error":  errorMsg,
		"action": action,
	})
}

// GET + POST /register
func (a *App) registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		a.render(w, r, "register.html", nil)
		return
	}

	user, err := a.users.Register(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case err == nil:
		a.log.Info(r.Context(), "user registered", "user_id", user.ID)
		a.addFlash(w, r, "success", "Registration successful! You can now log in.")
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, ErrValidation):
		a.addFlash(w, r, "danger", "Username and password are required.")
		http.Redirect(w, r, "/register", http.StatusFound)
	case errors.Is(err, ErrDuplicateUser):
		a.addFlash(w, r, "danger", "Username already exists. Please choose a different one.")
		http.Redirect(w, r, "/register", http.StatusFound)
	default:
		a.serverError(w, r, err)
	}
}

// GET /logout
func (a *App) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.logOut(w, r); err != nil {
		a.serverError(w, r, err)
		return
	}
	a.addFlash(w, r, "info", "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusFound)
}
