package portal

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
)

// storage keys
const (
	KeyStudents           = "students"
	KeyOfficers           = "officers"
	KeyComplaints         = "complaints"
	KeyFacultySupervisors = "facultySupervisors"
	KeyCompanies          = "companies"
	KeySiteSupervisors    = "siteSupervisors"
	KeyRequests           = "requests"
	KeyAnnouncements      = "announcements"
	KeyLogs               = "logs"
	KeyReports            = "reports"
	KeyApprovals          = "approvals"
	KeyAgreements         = "agreements"
	KeyEvaluations        = "evaluations"
	KeyFreelance          = "freelance"
	KeyDesignStatements   = "designStatements"
	KeyAssignments        = "assignments"
	KeyCurrentStudentID   = "currentStudentId"
	KeyCurrentUser        = "currentUser"
	KeyAdminProfile       = "adminProfile"
)

const (
	seedFacultyName     = "zain1234"
	seedFacultyEmail    = "zu4425@gmail.com"
	seedFacultyPassword = "zain1234"

	defaultPersistTimeout = 3 * time.Second
)

var NowFunc = func() time.Time { return time.Now().UTC() } // mockable

type (
	// Backend is the persistent mirror of the store. Values are JSON documents keyed by storage key.
	Backend interface {
		Load(ctx context.Context) (map[string][]byte, error)
		Save(ctx context.Context, entries map[string][]byte) error
	}

	// BlobStore keeps large assignment contents out of the snapshot.
	BlobStore interface {
		Put(ctx context.Context, key string, data []byte, contentType string) error
		Get(ctx context.Context, key string) ([]byte, error)
	}

	PersistObserver interface {
		ObservePersist(keys []string, dur time.Duration, err error)
	}
)

// Snapshot is the whole state of the store. JSON field names are the storage keys.
type Snapshot struct {
	Students           []Student                    `json:"students"`
	Officers           []InternshipOfficer          `json:"officers"`
	Complaints         []Complaint                  `json:"complaints"`
	FacultySupervisors []FacultySupervisor          `json:"facultySupervisors"`
	Companies          []Company                    `json:"companies"`
	SiteSupervisors    []SiteSupervisor             `json:"siteSupervisors"`
	Requests           []RequestItem                `json:"requests"`
	Announcements      []Announcement               `json:"announcements"`
	Logs               map[string][]WeeklyLog       `json:"logs"`
	Reports            map[string][]Report          `json:"reports"`
	Approvals          map[string][]ApprovalForm    `json:"approvals"`
	Agreements         map[string][]Agreement       `json:"agreements"`
	Evaluations        map[string][]Evaluation      `json:"evaluations"`
	Freelance          map[string][]FreelanceRecord `json:"freelance"`
	DesignStatements   map[string][]DesignStatement `json:"designStatements"`
	Assignments        map[string][]Assignment      `json:"assignments"`
	CurrentStudentID   string                       `json:"currentStudentId"`
	CurrentUser        *Principal                   `json:"currentUser"`
	AdminProfile       AdminProfile                 `json:"adminProfile"`
}

// fields maps every storage key to the matching field of snap.
func (snap *Snapshot) fields() map[string]interface{} {
	return map[string]interface{}{
		KeyStudents:           &snap.Students,
		KeyOfficers:           &snap.Officers,
		KeyComplaints:         &snap.Complaints,
		KeyFacultySupervisors: &snap.FacultySupervisors,
		KeyCompanies:          &snap.Companies,
		KeySiteSupervisors:    &snap.SiteSupervisors,
		KeyRequests:           &snap.Requests,
		KeyAnnouncements:      &snap.Announcements,
		KeyLogs:               &snap.Logs,
		KeyReports:            &snap.Reports,
		KeyApprovals:          &snap.Approvals,
		KeyAgreements:         &snap.Agreements,
		KeyEvaluations:        &snap.Evaluations,
		KeyFreelance:          &snap.Freelance,
		KeyDesignStatements:   &snap.DesignStatements,
		KeyAssignments:        &snap.Assignments,
		KeyCurrentStudentID:   &snap.CurrentStudentID,
		KeyCurrentUser:        &snap.CurrentUser,
		KeyAdminProfile:       &snap.AdminProfile,
	}
}

// Keys returns all storage keys, sorted.
func Keys() []string {
	keys := make([]string, 0, 19)
	for key := range new(Snapshot).fields() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Encode returns the JSON document of every storage key.
func (snap *Snapshot) Encode() (map[string][]byte, error) {
	return snap.encode(Keys())
}

func (snap *Snapshot) encode(keys []string) (map[string][]byte, error) {
	flds := snap.fields()
	entries := make(map[string][]byte, len(keys))
	for _, key := range keys {
		data, err := json.Marshal(flds[key])
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s", key)
		}
		entries[key] = data
	}
	return entries, nil
}

type AdminAccount struct {
	Email    string
	Password string
	Name     string
}

type Option func(*Store)

func WithLogger(logger core.Logger) Option { return func(s *Store) { s.logger = logger } }

func WithBlobStore(blobs BlobStore) Option { return func(s *Store) { s.blobs = blobs } }

func WithObserver(obs PersistObserver) Option { return func(s *Store) { s.observer = obs } }

func WithPersistTimeout(d time.Duration) Option { return func(s *Store) { s.persistTimeout = d } }

// WithAdminAccount sets the office account used when no admin profile is persisted yet.
func WithAdminAccount(acc AdminAccount) Option { return func(s *Store) { s.admin = acc } }

// Store holds every collection of the portal in memory and mirrors each mutation to a Backend.
// Memory is authoritative: a failed write is logged, kept dirty and retried on the next write.
type Store struct {
	mu    sync.RWMutex
	state Snapshot
	dirty map[string]bool

	backend        Backend
	blobs          BlobStore
	logger         core.Logger
	observer       PersistObserver
	persistTimeout time.Duration
	admin          AdminAccount
	persistErr     error
}

// NewStore loads the state persisted in backend and seeds the defaults.
func NewStore(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	s := &Store{
		dirty:          make(map[string]bool),
		backend:        backend,
		logger:         core.NewNopLogger(),
		persistTimeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	entries, err := backend.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading store")
	}
	flds := s.state.fields()
	for key, data := range entries {
		ptr, ok := flds[key]
		if !ok || len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, ptr); err != nil {
			s.logger.Warn("store: dropping undecodable key "+key, err)
			s.resetField(key)
		}
	}

	if err := s.seed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.flushLocked()
	s.mu.Unlock()
	return s, nil
}

func (s *Store) resetField(key string) {
	switch key {
	case KeyCurrentStudentID:
		s.state.CurrentStudentID = ""
	case KeyAdminProfile:
		s.state.AdminProfile = AdminProfile{}
	default:
		// collections and pointers are zeroed by decoding null into them
		_ = json.Unmarshal([]byte("null"), s.state.fields()[key])
	}
}

func (s *Store) seed() error {
	if len(s.state.FacultySupervisors) == 0 {
		hash, err := hashPassword(seedFacultyPassword)
		if err != nil {
			return errors.Wrap(err, "seeding faculty")
		}
		s.state.FacultySupervisors = append(s.state.FacultySupervisors, FacultySupervisor{
			ID:           newID(),
			Name:         seedFacultyName,
			Email:        seedFacultyEmail,
			PasswordHash: hash,
		})
		s.dirty[KeyFacultySupervisors] = true
	}

	prof := &s.state.AdminProfile
	if prof.Email == "" && prof.Username == "" && s.admin.Email != "" {
		hash, err := hashPassword(s.admin.Password)
		if err != nil {
			return errors.Wrap(err, "seeding admin profile")
		}
		prof.Email = strings.ToLower(s.admin.Email)
		prof.Name = s.admin.Name
		prof.PasswordHash = hash
		s.dirty[KeyAdminProfile] = true
	}
	return nil
}

// commit marks keys as changed and writes every dirty key. The caller holds s.mu.
func (s *Store) commit(keys ...string) {
	for _, key := range keys {
		s.dirty[key] = true
	}
	s.flushLocked()
}

func (s *Store) flushLocked() {
	if len(s.dirty) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()
	_ = s.writeLocked(ctx, s.dirtyKeys())
}

func (s *Store) dirtyKeys() []string {
	keys := make([]string, 0, len(s.dirty))
	for key := range s.dirty {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) writeLocked(ctx context.Context, keys []string) error {
	start := time.Now()
	err := s.saveKeys(ctx, keys)
	if s.observer != nil {
		s.observer.ObservePersist(keys, time.Since(start), err)
	}
	if err != nil {
		s.persistErr = err
		for _, key := range keys {
			s.dirty[key] = true
		}
		s.logger.Error("store: persisting "+strings.Join(keys, ","), err)
		return err
	}
	s.persistErr = nil
	for _, key := range keys {
		delete(s.dirty, key)
	}
	return nil
}

func (s *Store) saveKeys(ctx context.Context, keys []string) error {
	entries, err := s.state.encode(keys)
	if err != nil {
		return err
	}
	return errors.Wrap(s.backend.Save(ctx, entries), "saving store")
}

// Flush writes the keys left dirty by failed writes.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirty) == 0 {
		return nil
	}
	return s.writeLocked(ctx, s.dirtyKeys())
}

// PersistAll rewrites every key.
func (s *Store) PersistAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, Keys())
}

// PersistError returns the error of the last write, nil if it succeeded.
func (s *Store) PersistError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistErr
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.state)
}

// clone deep copies v through its JSON form.
func clone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(errors.Wrap(err, "clone"))
	}
	var cp T
	if err := json.Unmarshal(data, &cp); err != nil {
		panic(errors.Wrap(err, "clone"))
	}
	return cp
}

// cloneList is clone for listings: an empty list is never nil.
func cloneList[T any](items []T) []T {
	if len(items) == 0 {
		return []T{}
	}
	return clone(items)
}

func newID() string { return uuid.New().String() }

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
