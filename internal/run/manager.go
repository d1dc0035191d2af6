// File path: internal/run/manager.go
package run

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloudblazer/sfexporter/internal/common"
	"github.com/cloudblazer/sfexporter/internal/files"
	"github.com/cloudblazer/sfexporter/internal/salesforce"
	"github.com/cloudblazer/sfexporter/internal/store"
)

const defaultMaxLogEntries = 1000

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrRunNotRunning = errors.New("run not running")
)

// Status values a run moves through. Terminal states are completed, error,
// and terminated.
const (
	StatusStarting    = "starting"
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusError       = "error"
	StatusTerminating = "terminating"
	StatusTerminated  = "terminated"
)

// Flow selects how the run obtains Salesforce access.
const (
	FlowPassword = "password"
	FlowToken    = "token"
)

// Request describes one extraction run.
type Request struct {
	Flow string `json:"flow"`

	// Password flow inputs.
	Credentials salesforce.Credentials `json:"-"`

	// Token flow inputs.
	AccessToken string `json:"-"`
	InstanceURL string `json:"instance_url,omitempty"`

	// Optional app scoping.
	AppID     string `json:"app_id,omitempty"`
	AppLabel  string `json:"app_label,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// State is a point-in-time snapshot of a run.
type State struct {
	ID               string     `json:"run_id"`
	Status           string     `json:"status"`
	Running          bool       `json:"running"`
	Flow             string     `json:"flow"`
	AppID            string     `json:"app_id,omitempty"`
	AppLabel         string     `json:"app_label,omitempty"`
	Namespace        string     `json:"namespace,omitempty"`
	Message          string     `json:"message,omitempty"`
	Logs             []string   `json:"logs"`
	MetadataPath     string     `json:"metadata_path,omitempty"`
	ExportPath       string     `json:"export_path,omitempty"`
	ObjectsProcessed int        `json:"objects_processed"`
	FieldsExtracted  int        `json:"fields_extracted"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type session struct {
	state  State
	stop   bool
	cancel context.CancelFunc
}

// Manager owns the run registry, progress logs, and background execution.
type Manager struct {
	sf      *salesforce.Client
	files   *files.Service
	history *store.Store

	maxLogEntries int

	mu   sync.Mutex
	runs map[string]*session
}

// NewManager wires the run registry. The history store may be nil; terminal
// states then stay in memory only.
func NewManager(sf *salesforce.Client, fileSvc *files.Service, history *store.Store, maxLogEntries int) *Manager {
	if maxLogEntries <= 0 {
		maxLogEntries = defaultMaxLogEntries
	}
	return &Manager{
		sf:            sf,
		files:         fileSvc,
		history:       history,
		maxLogEntries: maxLogEntries,
		runs:          make(map[string]*session),
	}
}

// Start registers a new run and launches it in the background, returning the
// run id immediately.
func (m *Manager) Start(req Request) (string, error) {
	flow := strings.TrimSpace(req.Flow)
	if flow == "" {
		flow = FlowPassword
	}
	switch flow {
	case FlowPassword:
		if strings.TrimSpace(req.Credentials.Username) == "" || req.Credentials.Password == "" {
			return "", errors.New("username and password required")
		}
	case FlowToken:
		if strings.TrimSpace(req.AccessToken) == "" || strings.TrimSpace(req.InstanceURL) == "" {
			return "", errors.New("access token and instance url required")
		}
	default:
		return "", errors.New("unknown flow: " + flow)
	}
	req.Flow = flow

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	state := State{
		ID:        id,
		Status:    StatusStarting,
		Running:   true,
		Flow:      flow,
		AppID:     req.AppID,
		AppLabel:  req.AppLabel,
		Namespace: req.Namespace,
		StartedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.runs[id] = &session{state: state, cancel: cancel}
	m.mu.Unlock()

	go m.execute(ctx, id, req)
	common.Logger().Info("run: started", "run_id", id, "flow", flow)
	return id, nil
}

// Terminate requests a cooperative stop. The run keeps going until the
// pipeline's next cancellation poll.
func (m *Manager) Terminate(id string) error {
	m.mu.Lock()
	sess, ok := m.runs[id]
	if !ok {
		m.mu.Unlock()
		return ErrRunNotFound
	}
	if !sess.state.Running {
		m.mu.Unlock()
		return ErrRunNotRunning
	}
	sess.stop = true
	sess.state.Status = StatusTerminating
	cancel := sess.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.appendLog(id, "Termination requested.")
	common.Logger().Info("run: termination requested", "run_id", id)
	return nil
}

// Status returns a snapshot of a run; persisted history is consulted for runs
// no longer in memory.
func (m *Manager) Status(ctx context.Context, id string) (State, error) {
	m.mu.Lock()
	if sess, ok := m.runs[id]; ok {
		snapshot := cloneState(sess.state)
		m.mu.Unlock()
		return snapshot, nil
	}
	m.mu.Unlock()

	if m.history == nil {
		return State{}, ErrRunNotFound
	}
	record, err := m.history.GetRun(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return State{}, ErrRunNotFound
	}
	if err != nil {
		return State{}, err
	}
	state := stateFromRecord(record)
	if logs, err := m.history.RunLogs(ctx, id); err == nil {
		for _, entry := range logs {
			state.Logs = append(state.Logs, entry.Message)
		}
	}
	return state, nil
}

// History lists the most recent persisted runs.
func (m *Manager) History(ctx context.Context, limit int) ([]State, error) {
	if m.history == nil {
		return nil, nil
	}
	records, err := m.history.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	states := make([]State, 0, len(records))
	for _, record := range records {
		states = append(states, stateFromRecord(record))
	}
	return states, nil
}

func (m *Manager) appendLog(id, message string) {
	m.mu.Lock()
	if sess, ok := m.runs[id]; ok {
		sess.state.Logs = append(sess.state.Logs, message)
		if len(sess.state.Logs) > m.maxLogEntries {
			sess.state.Logs = sess.state.Logs[len(sess.state.Logs)-m.maxLogEntries:]
		}
	}
	m.mu.Unlock()
}

func (m *Manager) shouldContinue(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.runs[id]
	return ok && !sess.stop
}

func (m *Manager) setStatus(id, status string) {
	m.mu.Lock()
	if sess, ok := m.runs[id]; ok {
		sess.state.Status = status
	}
	m.mu.Unlock()
}

func (m *Manager) update(id string, fn func(*State)) {
	m.mu.Lock()
	if sess, ok := m.runs[id]; ok {
		fn(&sess.state)
	}
	m.mu.Unlock()
}

// finish moves a run into a terminal state and persists it best effort.
func (m *Manager) finish(id, status, message string) {
	now := time.Now().UTC()
	m.mu.Lock()
	sess, ok := m.runs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	sess.state.Status = status
	sess.state.Running = false
	sess.state.CompletedAt = &now
	if message != "" {
		sess.state.Message = message
	}
	snapshot := cloneState(sess.state)
	m.mu.Unlock()

	m.persist(snapshot)
	common.Logger().Info("run: finished", "run_id", id, "status", status)
}

func (m *Manager) persist(state State) {
	if m.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	record := store.RunRecord{
		ID:               state.ID,
		Status:           state.Status,
		Flow:             state.Flow,
		AppID:            state.AppID,
		AppLabel:         state.AppLabel,
		Namespace:        state.Namespace,
		Message:          state.Message,
		MetadataPath:     state.MetadataPath,
		ExportPath:       state.ExportPath,
		ObjectsProcessed: state.ObjectsProcessed,
		FieldsExtracted:  state.FieldsExtracted,
		StartedAt:        state.StartedAt,
	}
	if state.CompletedAt != nil {
		record.FinishedAt.Time = *state.CompletedAt
		record.FinishedAt.Valid = true
	}
	if err := m.history.SaveRun(ctx, record); err != nil {
		common.Logger().Warn("run: persist run failed", "run_id", state.ID, "error", err)
		return
	}
	if err := m.history.AppendLogs(ctx, state.ID, state.Logs, time.Now().UTC()); err != nil {
		common.Logger().Warn("run: persist logs failed", "run_id", state.ID, "error", err)
	}
}

func cloneState(src State) State {
	clone := src
	if len(src.Logs) > 0 {
		clone.Logs = append([]string(nil), src.Logs...)
	}
	return clone
}

func stateFromRecord(record store.RunRecord) State {
	state := State{
		ID:               record.ID,
		Status:           record.Status,
		Flow:             record.Flow,
		AppID:            record.AppID,
		AppLabel:         record.AppLabel,
		Namespace:        record.Namespace,
		Message:          record.Message,
		MetadataPath:     record.MetadataPath,
		ExportPath:       record.ExportPath,
		ObjectsProcessed: record.ObjectsProcessed,
		FieldsExtracted:  record.FieldsExtracted,
		StartedAt:        record.StartedAt,
	}
	if record.FinishedAt.Valid {
		finished := record.FinishedAt.Time
		state.CompletedAt = &finished
	}
	return state
}
