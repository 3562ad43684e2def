package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/clearance-service/internal/domain"
	"github.com/spec-kit/clearance-service/internal/events"
	"github.com/spec-kit/clearance-service/internal/repository"
)

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	nextID   int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]*domain.Account{}}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return uniqueViolation()
		}
	}
	r.nextID++
	account.ID = fmt.Sprintf("acc-%d", r.nextID)
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAccountRepo) List(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		result = append(result, *account)
	}
	return result, nil
}

type fakeDepartmentRepo struct {
	mu     sync.Mutex
	depts  map[string]*domain.Department
	nextID int
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{depts: map[string]*domain.Department{}}
}

func (r *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.depts {
		if existing.Name == dept.Name {
			return uniqueViolation()
		}
		if dept.HeadID != nil && existing.HeadID != nil && *existing.HeadID == *dept.HeadID {
			return uniqueViolation()
		}
	}
	r.nextID++
	dept.ID = fmt.Sprintf("dept-%d", r.nextID)
	dept.CreatedAt = time.Now()
	dept.UpdatedAt = dept.CreatedAt
	clone := *dept
	r.depts[dept.ID] = &clone
	return nil
}

func (r *fakeDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.depts[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *dept
	r.depts[dept.ID] = &clone
	return nil
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dept, ok := r.depts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *dept
	return &clone, nil
}

func (r *fakeDepartmentRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dept := range r.depts {
		if dept.Name == name {
			clone := *dept
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Department, 0, len(r.depts))
	for _, dept := range r.depts {
		result = append(result, *dept)
	}
	return result, nil
}

type fakeClearanceRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.ClearanceRequest
	depts    *fakeDepartmentRepo
	nextID   int
}

func newFakeClearanceRepo(depts *fakeDepartmentRepo) *fakeClearanceRepo {
	return &fakeClearanceRepo{requests: map[string]*domain.ClearanceRequest{}, depts: depts}
}

func (r *fakeClearanceRepo) Create(_ context.Context, req *domain.ClearanceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.StudentID == req.StudentID && existing.DepartmentID == req.DepartmentID {
			return uniqueViolation()
		}
	}
	r.nextID++
	req.ID = fmt.Sprintf("req-%d", r.nextID)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeClearanceRepo) Update(_ context.Context, req *domain.ClearanceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeClearanceRepo) GetByID(_ context.Context, id string) (*domain.ClearanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *req
	return &clone, nil
}

func (r *fakeClearanceRepo) GetByStudentAndDepartment(_ context.Context, studentID, departmentID string) (*domain.ClearanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.StudentID == studentID && req.DepartmentID == departmentID {
			clone := *req
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeClearanceRepo) ListWithFilter(ctx context.Context, filter repository.ClearanceFilter) ([]domain.ClearanceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ClearanceRequest
	for _, req := range r.requests {
		if filter.StudentID != nil && req.StudentID != *filter.StudentID {
			continue
		}
		if filter.DepartmentID != nil && req.DepartmentID != *filter.DepartmentID {
			continue
		}
		if filter.HeadID != nil && !r.headedBy(req.DepartmentID, *filter.HeadID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, req.Status) {
			continue
		}
		result = append(result, *req)
	}
	return result, nil
}

func (r *fakeClearanceRepo) headedBy(departmentID, headID string) bool {
	dept, ok := r.depts.depts[departmentID]
	if !ok || dept.HeadID == nil {
		return false
	}
	return *dept.HeadID == headID
}

func containsStatus(statuses []domain.RequestStatus, status domain.RequestStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
	ttls     map[string]time.Duration
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *fakeSessionStore) Put(_ context.Context, sessionID, accountID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = accountID
	s.ttls[sessionID] = ttl
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	delete(s.ttls, sessionID)
	return nil
}

func (s *fakeSessionStore) accountFor(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accountID, ok := s.sessions[sessionID]
	return accountID, ok
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}
