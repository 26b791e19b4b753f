package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog/log"

	"mediabatch/task"
)

// Event is one frame on a session's event stream.
type Event struct {
	Type      string `json:"type"` // progress | log | done
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
	Line      string `json:"line,omitempty"`
	OutputDir string `json:"outputDir,omitempty"`
}

// Session is the server-side state of one batch run. It implements
// task.Reporter: the runner feeds it events, which are buffered for
// replay and broadcast to websocket subscribers.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	mu        sync.Mutex
	state     task.State
	processed int
	total     int
	outputDir string
	events    []Event
	subs      map[*websocket.Conn]struct{}
}

// SessionView is the JSON snapshot of a session.
type SessionView struct {
	ID        string     `json:"id"`
	State     task.State `json:"state"`
	Processed int        `json:"processed"`
	Total     int        `json:"total"`
	OutputDir string     `json:"outputDir,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func newSession() *Session {
	return &Session{
		ID:        shortuuid.New(),
		CreatedAt: time.Now(),
		state:     task.StateDiscovering,
		subs:      make(map[*websocket.Conn]struct{}),
	}
}

func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		ID:        s.ID,
		State:     s.state,
		Processed: s.processed,
		Total:     s.total,
		OutputDir: s.outputDir,
		CreatedAt: s.CreatedAt,
	}
}

// publish buffers the event and fans it out to live subscribers. Dead
// connections are dropped on write failure.
func (s *Session) publish(ev Event) {
	s.events = append(s.events, ev)
	for conn := range s.subs {
		if err := conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Str("session", s.ID).Msg("dropping event subscriber")
			conn.Close()
			delete(s.subs, conn)
		}
	}
}

// Progress implements task.Reporter.
func (s *Session) Progress(processed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = task.StateRunning
	s.processed, s.total = processed, total
	s.publish(Event{Type: "progress", Processed: processed, Total: total})
}

// Log implements task.Reporter.
func (s *Session) Log(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(Event{Type: "log", Line: line})
}

// Done implements task.Reporter. Subscribers receive the terminal frame
// and are then closed.
func (s *Session) Done(outputDir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = task.StateCompleted
	s.outputDir = outputDir
	s.publish(Event{Type: "done", OutputDir: outputDir})
	for conn := range s.subs {
		conn.Close()
		delete(s.subs, conn)
	}
}

// Subscribe replays the buffered events to conn and registers it for
// live updates. Completed sessions get the replay only.
func (s *Session) Subscribe(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			return
		}
	}
	if s.state == task.StateCompleted {
		conn.Close()
		return
	}
	s.subs[conn] = struct{}{}
}

// SessionStore tracks sessions for the lifetime of the process.
type SessionStore struct {
	sessions sync.Map
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (st *SessionStore) Create() *Session {
	s := newSession()
	st.sessions.Store(s.ID, s)
	return s
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	if val, ok := st.sessions.Load(id); ok {
		return val.(*Session), true
	}
	return nil, false
}

func (st *SessionStore) List() []SessionView {
	var views []SessionView
	st.sessions.Range(func(key, value interface{}) bool {
		views = append(views, value.(*Session).Snapshot())
		return true
	})
	return views
}
