// Package boardtest provides an in-process fake backend: the REST write
// interface, the push channel and the broadcast fan-out, with just enough
// behavior to exercise a client end to end. Not for production use.
package boardtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/codefionn/boardsync/internal/wire"
)

// AdminPassword is the password Login accepts.
const AdminPassword = "letmein"

const adminToken = "boardtest-token"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server is one fake board backend.
type Server struct {
	httpSrv *httptest.Server

	mu     sync.Mutex
	items  []wire.Item
	maint  wire.MaintenanceState
	conns  map[*websocket.Conn]string
	nextID int
}

// New starts a fake backend. It is shut down via Close.
func New() *Server {
	s := &Server{conns: make(map[*websocket.Conn]string)}

	r := httprouter.New()
	r.GET("/api/questions", s.getQuestions)
	r.POST("/api/questions", s.postQuestion)
	r.POST("/api/questions/:id/replies", s.postReply)
	r.DELETE("/api/questions", s.auth(s.clearAll))
	r.DELETE("/api/questions/:id", s.auth(s.deleteQuestion))
	r.DELETE("/api/questions/:id/replies/:rid", s.auth(s.deleteReply))
	r.POST("/api/admin/login", s.login)
	r.POST("/api/admin/maintenance", s.auth(s.setMaintenance))
	r.GET("/api/admin/members", s.auth(s.members))
	r.GET("/api/maintenance", s.getMaintenance)
	r.POST("/api/ai", s.aiReply)
	r.GET("/ws", s.serveWS)
	r.GET("/ws/room/:room", s.serveWS)

	s.httpSrv = httptest.NewServer(r)
	return s
}

// URL is the backend base URL.
func (s *Server) URL() string { return s.httpSrv.URL }

// Close shuts the backend down and drops all push connections.
func (s *Server) Close() {
	s.DropConnections()
	s.httpSrv.Close()
}

// DropConnections severs every push connection without touching durable
// state, simulating a network cut.
func (s *Server) DropConnections() {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
	s.mu.Unlock()
}

// Items returns a copy of the durable item list, newest first.
func (s *Server) Items() []wire.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]wire.Item, len(s.items))
	copy(items, s.items)
	return items
}

// Seed replaces the durable item list without broadcasting.
func (s *Server) Seed(items []wire.Item) {
	s.mu.Lock()
	s.items = append([]wire.Item(nil), items...)
	s.mu.Unlock()
}

// EnableMaintenance flips maintenance on and broadcasts it.
func (s *Server) EnableMaintenance(message string) {
	s.mu.Lock()
	s.maint = wire.MaintenanceState{Status: true, Message: message}
	s.mu.Unlock()
	s.Broadcast(envelope{Type: wire.TypeMaintenance, Payload: wire.MaintenanceState{Status: true, Message: message}})
}

// envelope is the board-variant broadcast shape.
type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Broadcast pushes one event to every connected client.
func (s *Server) Broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

// BroadcastRaw pushes a raw frame, for exercising malformed input.
func (s *Server) BroadcastRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// ConnCount returns the number of live push connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Usernames returns the identities the connected clients announced.
func (s *Server) Usernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, name := range s.conns {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (s *Server) id(prefix string) string {
	s.nextID++
	return prefix + strconv.Itoa(s.nextID)
}

func (s *Server) auth(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if r.Header.Get("Authorization") != "Bearer "+adminToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h(w, r, ps)
	}
}

// maintenanceGate rejects durable writes while maintenance is active,
// echoing the current state in the 503 body.
func (s *Server) maintenanceGate(w http.ResponseWriter) bool {
	s.mu.Lock()
	maint := s.maint
	s.mu.Unlock()
	if !maint.Status {
		return false
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(maint)
	return true
}

func (s *Server) getQuestions(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	_ = json.NewEncoder(w).Encode(s.Items())
}

func (s *Server) postQuestion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.maintenanceGate(w) {
		return
	}
	var body struct {
		Text string `json:"text"`
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	item := wire.Item{ID: s.id("q"), Text: body.Text, User: body.User, CreatedAt: time.Now()}
	s.items = append([]wire.Item{item}, s.items...)
	s.mu.Unlock()

	_ = json.NewEncoder(w).Encode(item)
	s.Broadcast(envelope{Type: wire.TypeNewQuestion, Payload: item})
}

func (s *Server) postReply(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.maintenanceGate(w) {
		return
	}
	var body struct {
		Text string `json:"text"`
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	qid := ps.ByName("id")

	s.mu.Lock()
	reply := wire.Reply{ID: s.id("r"), Text: body.Text, User: body.User, CreatedAt: time.Now()}
	found := false
	for i := range s.items {
		if s.items[i].ID == qid {
			s.items[i].Replies = append(s.items[i].Replies, reply)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(reply)
	s.Broadcast(envelope{Type: wire.TypeNewReply, Payload: wire.NewReplyPayload{QuestionID: qid, Reply: reply}})
}

func (s *Server) deleteQuestion(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	qid := ps.ByName("id")
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == qid {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	w.Write([]byte(`{}`))
	s.Broadcast(envelope{Type: wire.TypeDeleteQuestion, Payload: wire.DeletedPayload{ID: qid}})
}

func (s *Server) deleteReply(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	qid, rid := ps.ByName("id"), ps.ByName("rid")
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID != qid {
			continue
		}
		for j := range s.items[i].Replies {
			if s.items[i].Replies[j].ID == rid {
				s.items[i].Replies = append(s.items[i].Replies[:j], s.items[i].Replies[j+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	w.Write([]byte(`{}`))
	s.Broadcast(envelope{Type: wire.TypeDeleteReply, Payload: wire.DeletedPayload{QuestionID: qid, ReplyID: rid}})
}

func (s *Server) clearAll(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	w.Write([]byte(`{}`))
	s.Broadcast(envelope{Type: wire.TypeClearAll})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password != AdminPassword {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"token": adminToken})
}

func (s *Server) setMaintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body wire.MaintenanceState
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.maint = body
	s.mu.Unlock()

	_ = json.NewEncoder(w).Encode(body)
	s.Broadcast(envelope{Type: wire.TypeMaintenance, Payload: body})
}

func (s *Server) getMaintenance(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	maint := s.maint
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(maint)
}

func (s *Server) members(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	_ = json.NewEncoder(w).Encode(map[string]int{"count": s.ConnCount()})
}

func (s *Server) aiReply(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		QuestionID string `json:"questionId"`
		Prompt     string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	reply := wire.Reply{ID: s.id("ai"), Text: "echo: " + body.Prompt, User: "assistant", CreatedAt: time.Now()}
	for i := range s.items {
		if s.items[i].ID == body.QuestionID {
			s.items[i].Replies = append(s.items[i].Replies, reply)
			break
		}
	}
	s.mu.Unlock()

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"questionId": body.QuestionID,
		"id":         reply.ID,
		"text":       reply.Text,
		"user":       reply.User,
	})
	s.Broadcast(envelope{Type: wire.TypeNewReply, Payload: wire.NewReplyPayload{QuestionID: body.QuestionID, Reply: reply}})
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = ""
	s.mu.Unlock()

	go s.readLoop(conn)
}

// readLoop records the announced identity and echoes typing signals to
// every client, the way the real backend fans them out.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Type       string  `json:"type"`
			Username   string  `json:"username"`
			QuestionID *string `json:"questionId"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "set-username", "join":
			s.mu.Lock()
			s.conns[conn] = msg.Username
			s.mu.Unlock()
		case "typing":
			s.Broadcast(struct {
				Type    string            `json:"type"`
				Payload wire.TypingSignal `json:"payload"`
			}{Type: wire.TypeTyping, Payload: wire.TypingSignal{QuestionID: msg.QuestionID, Username: msg.Username}})
		}
	}
}
