package main

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionName = "session"
	userIDKey   = "user_id"
)

func init() {
	gob.Register(Flash{})
}

// --- Session helpers ---

func newStore(secret string) *sessions.CookieStore {
	s := sessions.NewCookieStore([]byte(secret))
	s.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return s
}

func (a *App) session(r *http.Request) *sessions.Session {
	// A cookie that fails to decode gives a fresh session along with the error.
	session, _ := a.store.Get(r, sessionName)
	return session
}

func (a *App) currentUser(r *http.Request) *User {
	userID, ok := a.session(r).Values[userIDKey].(int64)
	if !ok {
		return nil
	}
	u, err := a.users.ByID(r.Context(), userID)
	if err != nil {
		return nil
	}
	return u
}

func (a *App) logIn(w http.ResponseWriter, r *http.Request, u *User) error {
	session := a.session(r)
	session.Values[userIDKey] = u.ID
	return session.Save(r, w)
}

func (a *App) logOut(w http.ResponseWriter, r *http.Request) error {
	session := a.session(r)
	delete(session.Values, userIDKey)
	return session.Save(r, w)
}

func (a *App) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session := a.session(r)
	session.AddFlash(Flash{Category: category, Message: message})
	if err := session.Save(r, w); err != nil {
		a.log.Error(r.Context(), "failed to save session", "error", err)
	}
}

func (a *App) getFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := a.session(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		a.log.Error(r.Context(), "failed to save session", "error", err)
	}

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(Flash); ok {
			flashes = append(flashes, fl)
		}
	}
	return flashes
}

type userCtxKey struct{}

func withUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// userFrom returns the user placed in ctx by requireLogin.
func userFrom(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// --- Password helpers ---

// prehash digests the password so inputs past bcrypt's 72-byte limit are
// neither rejected nor truncated.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func checkPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), prehash(password))
	return err == nil
}

// --- Template helpers ---

// render executes the page template and wraps it in layout.html. Templates
// are read from disk on every call.
func (a *App) render(w http.ResponseWriter, r *http.Request, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["current_user"]; !ok {
		username := ""
		if u := a.currentUser(r); u != nil {
			username = u.Username
		}
		data["current_user"] = username
	}
	data["flashes"] = a.getFlashes(w, r)

	content, err := a.execute(page, data)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	data["content"] = content

	out, err := a.execute("layout.html", data)
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}

func (a *App) execute(name string, data map[string]any) (string, error) {
	tpl, err := gonja.FromFile(filepath.Join(a.templateDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	out, err := tpl.ExecuteToString(exec.NewContext(data))
	if err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return out, nil
}

func (a *App) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func percent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}
