package reviewboard

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/sallan/RBScript/internal/terminal"
)

// rbServer is a fake Review Board serving canned replies keyed by
// "METHOD /path/". It records every request it sees.
type rbServer struct {
	*httptest.Server
	mu       sync.Mutex
	reply    map[string]rbReply
	requests []rbRequest
}

type rbReply struct {
	status int
	body   string
	cookie *http.Cookie
	f      func(r *http.Request) rbReply
}

type rbRequest struct {
	method string
	path   string
	query  url.Values
	form   url.Values
	cookie string
}

func newRBServer(t *testing.T) *rbServer {
	s := &rbServer{reply: map[string]rbReply{}}
	s.Server = httptest.NewServer(s)
	t.Cleanup(s.Close)
	return s
}

func (s *rbServer) setReply(key string, reply rbReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply[key] = reply
}

func (s *rbServer) setJSON(key, body string) {
	s.setReply(key, rbReply{body: body})
}

func (s *rbServer) recorded() []rbRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rbRequest(nil), s.requests...)
}

func (s *rbServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	data, _ := io.ReadAll(req.Body)
	form, _ := url.ParseQuery(string(data))
	rec := rbRequest{method: req.Method, path: req.URL.Path, query: req.URL.Query(), form: form}
	if ck, err := req.Cookie(SessionCookie); err == nil {
		rec.cookie = ck.Value
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	reply, ok := s.reply[req.Method+" "+req.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, req)
		return
	}
	if reply.f != nil {
		reply = reply.f(req)
	}
	w.Header().Set("Content-Type", "application/json")
	if reply.cookie != nil {
		http.SetCookie(w, reply.cookie)
	}
	if reply.status != 0 {
		w.WriteHeader(reply.status)
	}
	if len(reply.body) > 0 {
		_, _ = w.Write([]byte(reply.body))
	}
}

// newTestClient returns a client for s with an in-memory cookie file.
func newTestClient(s *rbServer, opts ...Option) *Client {
	opts = append([]Option{WithHTTPClient(s.Client())}, opts...)
	return New(s.URL, terminal.NewLoggerTo(io.Discard), opts...)
}

// stubCredentials answers login prompts with fixed values.
type stubCredentials struct {
	username, password string
	prompts            []string
}

func (c *stubCredentials) Line(prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.username, nil
}

func (c *stubCredentials) Password(prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.password, nil
}
