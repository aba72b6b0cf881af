package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wikirag/internal/domain"
	"wikirag/internal/service"
)

// queryPrefix marks a chat message as a question for the bot.
const queryPrefix = "Q:"

// Answerer is the server-facing subset of the RAG service.
type Answerer interface {
	Answer(ctx context.Context, question string) (domain.Answer, error)
}

// Server exposes the question-answer engine over HTTP: a chat webhook
// at /webhook and a small ask form at /.
type Server struct {
	svc Answerer
}

func New(svc Answerer) *Server {
	return &Server{svc: svc}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleForm)
	r.Post("/ask", s.handleAsk)
	r.Post("/webhook", s.handleWebhook)
	return r
}

type chatEvent struct {
	Message *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// handleWebhook accepts a chat-style JSON event. Messages starting
// with the query prefix are answered; anything else gets a hint. A
// failure in the query path degrades to a plain-text error reply,
// never a crash of the serving surface.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var event chatEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil || event.Message == nil || event.Message.Text == "" {
		writeText(w, http.StatusBadRequest, "Invalid message format.")
		return
	}
	text := strings.TrimSpace(event.Message.Text)
	if !strings.HasPrefix(text, queryPrefix) {
		writeText(w, http.StatusOK, fmt.Sprintf("Please start your message with %q to ask a question.", queryPrefix))
		return
	}
	question := strings.TrimSpace(strings.TrimPrefix(text, queryPrefix))
	writeText(w, http.StatusOK, s.answerText(r.Context(), question))
}

type formData struct {
	Question string
	Response string
}

func (s *Server) handleForm(w http.ResponseWriter, _ *http.Request) {
	if err := formTemplate.Execute(w, formData{}); err != nil {
		log.Printf("server: rendering form: %v", err)
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := formData{Question: question, Response: s.answerText(r.Context(), question)}
	if err := formTemplate.Execute(w, data); err != nil {
		log.Printf("server: rendering answer: %v", err)
	}
}

func (s *Server) answerText(ctx context.Context, question string) string {
	answer, err := s.svc.Answer(ctx, question)
	if err != nil {
		log.Printf("server: answering %q: %v", question, err)
		return fmt.Sprintf("An error occurred: %v", err)
	}
	return service.FormatAnswer(answer)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"text": text})
}

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><title>Knowledge Base Chatbot</title></head>
<body>
<h1>Knowledge Base Chatbot</h1>
<p>Ask a question about the wiki. Pages tagged internal_only are excluded.</p>
<form method="post" action="/ask">
  <input type="text" name="question" size="80" value="{{.Question}}" placeholder="Type your query here...">
  <button type="submit">Get Answer</button>
</form>
{{if .Response}}<pre style="white-space: pre-wrap">{{.Response}}</pre>{{end}}
</body>
</html>
`))
