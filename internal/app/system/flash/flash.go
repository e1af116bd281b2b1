// Package flash provides one-shot notices for the dashboard and member
// portal, backed by a gorilla cookie session.
package flash

import (
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sessionName = "junction-flash"

// Message is a single notice shown once on the next rendered page.
type Message struct {
	Kind string // "success", "error", "info"
	Text string
}

func init() {
	gob.Register(Message{})
}

// store is initialised once via Init.
var store *sessions.CookieStore

// Init configures the flash-message session store. The secure flag
// controls the Secure cookie attribute; SameSite stays Lax so notices
// survive same-site redirects after form posts.
func Init(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("flash session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("flash session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	s := sessions.NewCookieStore([]byte(sessionKey))
	s.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store = s

	logger.Info("flash store initialized", zap.Bool("secure", secure))
	return nil
}

// Success queues a success notice.
func Success(w http.ResponseWriter, r *http.Request, text string) {
	add(w, r, Message{Kind: "success", Text: text})
}

// Error queues an error notice.
func Error(w http.ResponseWriter, r *http.Request, text string) {
	add(w, r, Message{Kind: "error", Text: text})
}

// Info queues an informational notice.
func Info(w http.ResponseWriter, r *http.Request, text string) {
	add(w, r, Message{Kind: "info", Text: text})
}

func add(w http.ResponseWriter, r *http.Request, msg Message) {
	if store == nil {
		return
	}
	sess, _ := store.Get(r, sessionName)
	sess.AddFlash(msg)
	_ = sess.Save(r, w)
}

// Take returns queued notices and clears them. Call once per rendered
// page, before writing the response body.
func Take(w http.ResponseWriter, r *http.Request) []Message {
	if store == nil {
		return nil
	}
	sess, _ := store.Get(r, sessionName)
	raw := sess.Flashes()
	if len(raw) > 0 {
		_ = sess.Save(r, w)
	}

	msgs := make([]Message, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(Message); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}
