package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/clearance-service/internal/domain"
	"github.com/spec-kit/clearance-service/internal/events"
	"github.com/spec-kit/clearance-service/internal/policy"
	apperrors "github.com/spec-kit/clearance-service/pkg/util"
)

type clearanceFixture struct {
	service  *ClearanceService
	accounts *fakeAccountRepo
	depts    *fakeDepartmentRepo
	requests *fakeClearanceRepo
	events   *recordingDispatcher

	student     *policy.Caller
	student2    *policy.Caller
	libraryHead *policy.Caller
	otherHead   *policy.Caller
	admin       *policy.Caller

	library *domain.Department
	hostel  *domain.Department
}

func newClearanceFixture(t *testing.T) *clearanceFixture {
	t.Helper()
	ctx := context.Background()

	accounts := newFakeAccountRepo()
	depts := newFakeDepartmentRepo()
	requests := newFakeClearanceRepo(depts)
	dispatcher := &recordingDispatcher{}

	mkAccount := func(name, email string, role domain.Role) *domain.Account {
		account := &domain.Account{Name: name, Email: email, PasswordHash: "x", Role: role}
		require.NoError(t, accounts.Create(ctx, account))
		return account
	}

	student := mkAccount("Student User", "student@example.com", domain.RoleStudent)
	student2 := mkAccount("Second Student", "student2@example.com", domain.RoleStudent)
	libHead := mkAccount("Library Department", "library@example.com", domain.RoleDepartment)
	accHead := mkAccount("Accounts Department", "accounts@example.com", domain.RoleDepartment)
	admin := mkAccount("Admin User", "admin@example.com", domain.RoleAdmin)

	library := &domain.Department{Name: "Library", HeadID: &libHead.ID}
	require.NoError(t, depts.Create(ctx, library))
	accountsDept := &domain.Department{Name: "Accounts", HeadID: &accHead.ID}
	require.NoError(t, depts.Create(ctx, accountsDept))
	hostel := &domain.Department{Name: "Hostel"}
	require.NoError(t, depts.Create(ctx, hostel))

	svc := NewClearanceService(ClearanceDependencies{
		RequestRepo:    requests,
		DepartmentRepo: depts,
		AccountRepo:    accounts,
		Dispatcher:     dispatcher,
	})

	asCaller := func(account *domain.Account) *policy.Caller {
		return &policy.Caller{ID: account.ID, Role: account.Role}
	}

	return &clearanceFixture{
		service:     svc,
		accounts:    accounts,
		depts:       depts,
		requests:    requests,
		events:      dispatcher,
		student:     asCaller(student),
		student2:    asCaller(student2),
		libraryHead: asCaller(libHead),
		otherHead:   asCaller(accHead),
		admin:       asCaller(admin),
		library:     library,
		hostel:      hostel,
	}
}

func requireDomainError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestCreateRequest(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	detail, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	req := detail.Request
	assert.Equal(t, fx.student.ID, req.StudentID)
	assert.Equal(t, fx.library.ID, req.DepartmentID)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Nil(t, req.Comment)
	assert.Nil(t, req.ResponseDate)
	assert.Equal(t, "Student User", detail.StudentName)
	assert.Equal(t, "Library", detail.DepartmentName)

	y, m, d := time.Now().UTC().Date()
	assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, time.UTC), req.RequestDate)

	published := fx.events.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventRequestCreated, published[0].Type)
	assert.Equal(t, fx.student.ID, published[0].Actor.AccountID)
}

func TestCreateRequestDuplicateConflict(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	_, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	_, err = fx.service.Create(ctx, fx.student, fx.library.ID)
	requireDomainError(t, err, "CONFLICT")

	listed, err := fx.service.List(ctx, fx.admin, RequestListFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCreateRequestOnlyStudents(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	_, err := fx.service.Create(ctx, fx.libraryHead, fx.library.ID)
	requireDomainError(t, err, "PERMISSION_DENIED")

	_, err = fx.service.Create(ctx, fx.admin, fx.library.ID)
	requireDomainError(t, err, "PERMISSION_DENIED")
}

func TestCreateRequestUnknownDepartment(t *testing.T) {
	fx := newClearanceFixture(t)

	_, err := fx.service.Create(context.Background(), fx.student, "missing")
	requireDomainError(t, err, "NOT_FOUND")
}

func TestApproveByHead(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	detail, err := fx.service.Approve(ctx, fx.libraryHead, created.Request.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusApproved, detail.Request.Status)
	require.NotNil(t, detail.Request.ResponseDate)
	y, m, d := time.Now().UTC().Date()
	assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, time.UTC), *detail.Request.ResponseDate)
	assert.Nil(t, detail.Request.Comment)
	assert.Equal(t, created.Request.RequestDate, detail.Request.RequestDate)
}

func TestApproveByForeignHeadDenied(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, fx.otherHead, created.Request.ID)
	requireDomainError(t, err, "PERMISSION_DENIED")

	_, err = fx.service.Reject(ctx, fx.otherHead, created.Request.ID, "nope")
	requireDomainError(t, err, "PERMISSION_DENIED")

	stored, err := fx.requests.GetByID(ctx, created.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, stored.Status)
}

func TestApproveHeadlessDepartmentAdminOnly(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.hostel.ID)
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, fx.libraryHead, created.Request.ID)
	requireDomainError(t, err, "PERMISSION_DENIED")

	detail, err := fx.service.Approve(ctx, fx.admin, created.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, detail.Request.Status)
}

func TestRejectRequiresReason(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	for _, reason := range []string{"", "   "} {
		_, err = fx.service.Reject(ctx, fx.admin, created.Request.ID, reason)
		requireDomainError(t, err, "VALIDATION_FAILED")
	}

	stored, err := fx.requests.GetByID(ctx, created.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, stored.Status)
	assert.Nil(t, stored.ResponseDate)
}

func TestRejectByAdmin(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	detail, err := fx.service.Reject(ctx, fx.admin, created.Request.ID, "missing form")
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusRejected, detail.Request.Status)
	require.NotNil(t, detail.Request.Comment)
	assert.Equal(t, "missing form", *detail.Request.Comment)
	assert.NotNil(t, detail.Request.ResponseDate)
}

func TestRejectOverwritesComment(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	_, err = fx.service.Reject(ctx, fx.libraryHead, created.Request.ID, "first reason")
	require.NoError(t, err)

	detail, err := fx.service.Reject(ctx, fx.libraryHead, created.Request.ID, "second reason")
	require.NoError(t, err)
	assert.Equal(t, "second reason", *detail.Request.Comment)
}

// Re-deciding an already-terminal request succeeds. The response date must
// survive from the first decision.
func TestApproveTerminalRequestKeepsResponseDate(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	first, err := fx.service.Approve(ctx, fx.libraryHead, created.Request.ID)
	require.NoError(t, err)
	firstResponse := *first.Request.ResponseDate

	second, err := fx.service.Approve(ctx, fx.libraryHead, created.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, second.Request.Status)
	assert.Equal(t, firstResponse, *second.Request.ResponseDate)
	assert.Equal(t, created.Request.RequestDate, second.Request.RequestDate)

	third, err := fx.service.Reject(ctx, fx.admin, created.Request.ID, "changed our mind")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, third.Request.Status)
	assert.Equal(t, firstResponse, *third.Request.ResponseDate)
}

func TestUpdateWritesFieldsDirectly(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	status := domain.RequestStatusApproved
	comment := "fast-tracked"
	detail, err := fx.service.Update(ctx, fx.admin, created.Request.ID, RequestUpdateInput{
		Status:  &status,
		Comment: &comment,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusApproved, detail.Request.Status)
	assert.Equal(t, "fast-tracked", *detail.Request.Comment)
	// the generic path does not maintain response_date
	assert.Nil(t, detail.Request.ResponseDate)
}

func TestUpdateDeniedForStudents(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	status := domain.RequestStatusApproved
	_, err = fx.service.Update(ctx, fx.student, created.Request.ID, RequestUpdateInput{Status: &status})
	requireDomainError(t, err, "PERMISSION_DENIED")
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	bogus := domain.RequestStatus("escalated")
	_, err = fx.service.Update(ctx, fx.admin, created.Request.ID, RequestUpdateInput{Status: &bogus})
	requireDomainError(t, err, "VALIDATION_FAILED")
}

func TestListScopedByRole(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	_, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)
	_, err = fx.service.Create(ctx, fx.student, fx.hostel.ID)
	require.NoError(t, err)
	_, err = fx.service.Create(ctx, fx.student2, fx.library.ID)
	require.NoError(t, err)

	all, err := fx.service.List(ctx, fx.admin, RequestListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := fx.service.List(ctx, fx.student, RequestListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, detail := range mine {
		assert.Equal(t, fx.student.ID, detail.Request.StudentID)
	}

	libraryScoped, err := fx.service.List(ctx, fx.libraryHead, RequestListFilter{})
	require.NoError(t, err)
	assert.Len(t, libraryScoped, 2)
	for _, detail := range libraryScoped {
		assert.Equal(t, fx.library.ID, detail.Request.DepartmentID)
	}
}

func TestGetVisibility(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)

	_, err = fx.service.Get(ctx, fx.student, created.Request.ID)
	require.NoError(t, err)
	_, err = fx.service.Get(ctx, fx.libraryHead, created.Request.ID)
	require.NoError(t, err)
	_, err = fx.service.Get(ctx, fx.admin, created.Request.ID)
	require.NoError(t, err)

	_, err = fx.service.Get(ctx, fx.student2, created.Request.ID)
	requireDomainError(t, err, "PERMISSION_DENIED")
	_, err = fx.service.Get(ctx, fx.otherHead, created.Request.ID)
	requireDomainError(t, err, "PERMISSION_DENIED")
}

func TestLifecycleEvents(t *testing.T) {
	fx := newClearanceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, fx.student, fx.library.ID)
	require.NoError(t, err)
	_, err = fx.service.Approve(ctx, fx.libraryHead, created.Request.ID)
	require.NoError(t, err)
	_, err = fx.service.Reject(ctx, fx.admin, created.Request.ID, "audit failed")
	require.NoError(t, err)

	published := fx.events.published()
	require.Len(t, published, 3)
	assert.Equal(t, events.EventRequestCreated, published[0].Type)
	assert.Equal(t, events.EventRequestApproved, published[1].Type)
	assert.Equal(t, events.EventRequestRejected, published[2].Type)
	for _, event := range published {
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Timestamp.IsZero())
		assert.Equal(t, created.Request.ID, event.RequestID)
	}
}
