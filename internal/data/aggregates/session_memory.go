package aggregates

import (
	"context"
	"sort"
	"sync"
	"time"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
)

// MemorySessionStore is a process-local session.Repository used by the simulator and for
// DB_DRIVER=memory. Sessions are deep-copied on the way in and out.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
	hooks    Hooks
}

func NewMemorySessionStore(hooks Hooks) *MemorySessionStore {
	if hooks == nil {
		hooks = noopHooks{}
	}
	return &MemorySessionStore{sessions: map[string]*types.Session{}, hooks: hooks}
}

func (m *MemorySessionStore) Create(ctx context.Context, sess *types.Session) error {
	const op = "assessment.session.create"
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return observe(m.hooks, op, start, err)
	}
	if sess == nil || sess.ID == "" {
		return observe(m.hooks, op, start, ValidationError("session id is required"))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sess.ID]; ok {
		return observe(m.hooks, op, start, ConflictError("session id already exists"))
	}
	m.sessions[sess.ID] = sess.Clone()
	return observe(m.hooks, op, start, nil)
}

func (m *MemorySessionStore) Load(ctx context.Context, id string) (*types.Session, error) {
	const op = "assessment.session.load"
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, observe(m.hooks, op, start, err)
	}
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, observe(m.hooks, op, start, types.SessionNotFound(op, id))
	}
	return sess.Clone(), observe(m.hooks, op, start, nil)
}

func (m *MemorySessionStore) Save(ctx context.Context, sess *types.Session, expectedVersion int) error {
	const op = "assessment.session.save"
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return observe(m.hooks, op, start, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[sess.ID]
	if !ok {
		return observe(m.hooks, op, start, types.SessionNotFound(op, sess.ID))
	}
	if err := RequireVersionMatch(cur.Version, expectedVersion); err != nil {
		return observe(m.hooks, op, start, err)
	}
	stored := sess.Clone()
	stored.Version = expectedVersion + 1
	m.sessions[sess.ID] = stored
	sess.Version = stored.Version
	return observe(m.hooks, op, start, nil)
}

func (m *MemorySessionStore) LatestForStudent(ctx context.Context, studentID string) (*types.Session, error) {
	const op = "assessment.session.latest"
	start := time.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *types.Session
	for _, s := range m.sessions {
		if s.StudentID == studentID && newer(s, latest) {
			latest = s
		}
	}
	if latest == nil {
		return nil, observe(m.hooks, op, start, NotFoundError("no session for student"))
	}
	return latest.Clone(), observe(m.hooks, op, start, nil)
}

func (m *MemorySessionStore) ListLatestPerStudent(ctx context.Context) ([]*types.Session, error) {
	const op = "assessment.session.list_latest"
	start := time.Now()
	m.mu.RLock()
	latest := map[string]*types.Session{}
	for _, s := range m.sessions {
		if newer(s, latest[s.StudentID]) {
			latest[s.StudentID] = s
		}
	}
	out := make([]*types.Session, 0, len(latest))
	for _, s := range latest {
		out = append(out, s.Clone())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, observe(m.hooks, op, start, nil)
}

func newer(a, b *types.Session) bool {
	if b == nil {
		return true
	}
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.After(b.StartTime)
	}
	return a.ID > b.ID
}
