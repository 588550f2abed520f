package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default batching knobs. Overridable through Options for tests and tuning.
const (
	DefaultInsertChunkSize = 100
	DefaultUpdateChunkSize = 100
	DefaultStatsBatchSize  = 1000
	DefaultSessionTTL      = 30 * time.Minute
)

// Options tunes a Service. Zero values fall back to the defaults above.
type Options struct {
	FetchChunkSize  int
	InsertChunkSize int
	UpdateChunkSize int
	StatsBatchSize  int
	SessionTTL      time.Duration
}

// Service carries the import, query, and mutation operations. The store is
// injected once at startup and reused for the process lifetime; swapping it
// means rebuilding the dependency graph.
type Service struct {
	store Store
	opts  Options
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*importSession
}

// importSession holds one analyze result awaiting confirmation. Consumed at
// most once by ExecuteSession.
type importSession struct {
	ID        string
	FileName  string
	Analysis  ImportAnalysis
	CreatedAt time.Time
}

// NewService creates a Service around the given store.
func NewService(store Store, opts Options) *Service {
	if opts.FetchChunkSize <= 0 {
		opts.FetchChunkSize = DefaultFetchChunkSize
	}
	if opts.InsertChunkSize <= 0 {
		opts.InsertChunkSize = DefaultInsertChunkSize
	}
	if opts.UpdateChunkSize <= 0 {
		opts.UpdateChunkSize = DefaultUpdateChunkSize
	}
	if opts.StatsBatchSize <= 0 {
		opts.StatsBatchSize = DefaultStatsBatchSize
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	return &Service{
		store:    store,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*importSession),
	}
}

// AnalyzeCSV parses raw CSV bytes, reconciles the candidates against the
// store, and registers the result as a pending import session. The returned
// session id is what ExecuteSession later consumes.
func (s *Service) AnalyzeCSV(ctx context.Context, fileName string, data []byte, onProgress ProgressFunc) (string, *ImportAnalysis, error) {
	candidates, err := ParseCandidates(data)
	if err != nil {
		return "", nil, err
	}

	analysis, err := s.Analyze(ctx, candidates, onProgress)
	if err != nil {
		return "", nil, err
	}

	session := &importSession{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Analysis:  *analysis,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.purgeExpiredLocked()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session.ID, analysis, nil
}

// ExecuteSession commits a previously analyzed session. The session is
// removed before execution so it can be committed at most once; an unknown or
// expired id is an error.
func (s *Service) ExecuteSession(ctx context.Context, sessionID, importedBy string, onProgress ProgressFunc) (*ImportResult, error) {
	s.mu.Lock()
	s.purgeExpiredLocked()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("import session %s not found or expired", sessionID)
	}

	return s.Execute(ctx, session.Analysis.Previews, session.FileName, importedBy, onProgress), nil
}

// purgeExpiredLocked drops sessions older than the TTL. Caller holds mu.
func (s *Service) purgeExpiredLocked() {
	cutoff := s.now().Add(-s.opts.SessionTTL)
	for id, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
