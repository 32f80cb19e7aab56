package board

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"parley/internal/domain"
)

// Server is the in-memory board used for development and tests. It never
// inspects payloads: announcements are an ordered public feed, entries a
// map keyed by seeker.
type Server struct {
	mu      sync.Mutex
	log     *logrus.Logger
	seq     int64
	anns    []announcementRecord
	entries map[string]entryRecord
}

type announcementRecord struct {
	ID   string
	Seq  int64
	Blob []byte
}

type entryRecord struct {
	ID     string
	Cipher []byte
}

// NewServer builds an empty board. A nil logger silences it.
func NewServer(log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return &Server{log: log, entries: make(map[string]entryRecord)}
}

// Handler returns the board's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/announcements", s.handleAnnouncements)
	mux.HandleFunc("/entries", s.handlePostEntry)
	mux.HandleFunc("/entries/fetch", s.handleFetchEntries)
	mux.HandleFunc("/entries/release", s.handleReleaseEntries)
	return mux
}

func (s *Server) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in struct {
			Blob []byte `json:"blob"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Blob) == 0 {
			http.Error(w, "bad announcement", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.seq++
		rec := announcementRecord{ID: uuid.NewString(), Seq: s.seq, Blob: in.Blob}
		s.anns = append(s.anns, rec)
		s.mu.Unlock()
		s.log.WithField("id", rec.ID).Debug("announcement stored")
		writeJSON(w, struct {
			ID string `json:"id"`
		}{ID: rec.ID})

	case http.MethodGet:
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		s.mu.Lock()
		page := announcementsPage{Next: s.seq, Announcements: [][]byte{}}
		for _, rec := range s.anns {
			if rec.Seq > since {
				page.Announcements = append(page.Announcements, rec.Blob)
			}
		}
		s.mu.Unlock()
		writeJSON(w, page)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePostEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var post domain.BoardPost
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil || len(post.Seeker) == 0 {
		http.Error(w, "bad entry", http.StatusBadRequest)
		return
	}
	key := seekerKey(post.Seeker)
	s.mu.Lock()
	s.entries[key] = entryRecord{ID: uuid.NewString(), Cipher: post.Cipher}
	s.mu.Unlock()
	s.log.WithField("seeker", key[:12]).Debug("entry stored")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFetchEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var in seekerSet
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	page := entryPage{Entries: []domain.BoardEntry{}}
	s.mu.Lock()
	for _, seeker := range in.Seekers {
		if rec, ok := s.entries[seekerKey(seeker)]; ok {
			page.Entries = append(page.Entries, domain.BoardEntry{Seeker: seeker, Cipher: rec.Cipher})
		}
	}
	s.mu.Unlock()
	writeJSON(w, page)
}

func (s *Server) handleReleaseEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var in seekerSet
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	for _, seeker := range in.Seekers {
		delete(s.entries, seekerKey(seeker))
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func seekerKey(seeker []byte) string {
	return base64.StdEncoding.EncodeToString(seeker)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
