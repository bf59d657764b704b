package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rifathasan/caretrack/internal/apperror"
	"github.com/rifathasan/caretrack/internal/event"
	"github.com/rifathasan/caretrack/internal/model"
)

// mockMemberRepo implements repository.MemberRepository in memory with the
// same owner-scoping semantics as the sqlite implementation.
type mockMemberRepo struct {
	members map[string]*model.Member
	nextID  int
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{members: make(map[string]*model.Member)}
}

func (m *mockMemberRepo) Create(_ context.Context, member *model.Member) error {
	m.nextID++
	member.ID = fmt.Sprintf("m-%d", m.nextID)
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	stored := *member
	m.members[member.ID] = &stored
	return nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, ownerID, id string) (*model.Member, error) {
	member, ok := m.members[id]
	if !ok || member.OwnerID != ownerID {
		return nil, apperror.NotFound("member", id)
	}
	result := *member
	return &result, nil
}

func (m *mockMemberRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Member, error) {
	result := []model.Member{}
	for _, member := range m.members {
		if member.OwnerID == ownerID {
			result = append(result, *member)
		}
	}
	return result, nil
}

func (m *mockMemberRepo) Update(_ context.Context, member *model.Member) error {
	existing, ok := m.members[member.ID]
	if !ok || existing.OwnerID != member.OwnerID {
		return apperror.NotFound("member", member.ID)
	}
	stored := *member
	m.members[member.ID] = &stored
	return nil
}

func (m *mockMemberRepo) Delete(_ context.Context, ownerID, id string) error {
	existing, ok := m.members[id]
	if !ok || existing.OwnerID != ownerID {
		return apperror.NotFound("member", id)
	}
	delete(m.members, id)
	return nil
}

// captureRecorder stores emitted events for assertions.
type captureRecorder struct {
	events []event.Event
}

func (c *captureRecorder) Record(_ context.Context, e event.Event) {
	c.events = append(c.events, e)
}

func newTestMemberService(t *testing.T) (*MemberService, *mockMemberRepo, *captureRecorder) {
	t.Helper()
	repo := newMockMemberRepo()
	events := &captureRecorder{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewMemberService(repo, events, logger), repo, events
}

func validCreateInput() CreateMemberInput {
	return CreateMemberInput{
		FirstName:    "Alice",
		LastName:     "Tester",
		Relationship: "mother",
		BirthYear:    1950,
	}
}

func TestMemberCreate(t *testing.T) {
	svc, _, events := newTestMemberService(t)

	member, err := svc.Create(context.Background(), "cg-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if member.ID == "" {
		t.Error("Create() did not assign an id")
	}
	if member.OwnerID != "cg-1" {
		t.Errorf("Create() ownerID = %q, want cg-1", member.OwnerID)
	}
	if member.Status != model.MemberStatusActive {
		t.Errorf("Create() status = %q, want default active", member.Status)
	}

	if len(events.events) != 1 {
		t.Fatalf("Create() emitted %d events, want 1", len(events.events))
	}
	e := events.events[0]
	if e.Name != event.MemberAdded || e.OwnerID != "cg-1" || e.MemberID != member.ID {
		t.Errorf("Create() event = %+v, want member_added for cg-1/%s", e, member.ID)
	}
}

func TestMemberCreateExplicitStatus(t *testing.T) {
	svc, _, _ := newTestMemberService(t)

	in := validCreateInput()
	in.Status = "inactive"
	member, err := svc.Create(context.Background(), "cg-1", in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if member.Status != model.MemberStatusInactive {
		t.Errorf("Create() status = %q, want inactive", member.Status)
	}
}

func TestMemberCreateValidation(t *testing.T) {
	currentYear := time.Now().Year()

	tests := []struct {
		name      string
		mutate    func(*CreateMemberInput)
		wantField string
	}{
		{"empty firstName", func(in *CreateMemberInput) { in.FirstName = "  " }, "firstName"},
		{"empty lastName", func(in *CreateMemberInput) { in.LastName = "" }, "lastName"},
		{"empty relationship", func(in *CreateMemberInput) { in.Relationship = "" }, "relationship"},
		{"birthYear 1899", func(in *CreateMemberInput) { in.BirthYear = 1899 }, "birthYear"},
		{"birthYear next year", func(in *CreateMemberInput) { in.BirthYear = currentYear + 1 }, "birthYear"},
		{"unknown status", func(in *CreateMemberInput) { in.Status = "retired" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, events := newTestMemberService(t)
			in := validCreateInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), "cg-1", in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.wantField {
				t.Errorf("Create() field = %q, want %q", appErr.Field, tt.wantField)
			}
			if len(repo.members) != 0 {
				t.Error("invalid input reached the store")
			}
			if len(events.events) != 0 {
				t.Error("invalid input emitted an event")
			}
		})
	}
}

func TestMemberCreateBirthYearBounds(t *testing.T) {
	svc, _, _ := newTestMemberService(t)
	currentYear := time.Now().Year()

	for _, year := range []int{1900, currentYear} {
		in := validCreateInput()
		in.BirthYear = year
		if _, err := svc.Create(context.Background(), "cg-1", in); err != nil {
			t.Errorf("Create() with birthYear %d error = %v, want accepted", year, err)
		}
	}
}

func TestMemberCreateListRoundTrip(t *testing.T) {
	svc, _, _ := newTestMemberService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "cg-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	members, err := svc.List(ctx, "cg-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("List() returned %d members, want 1", len(members))
	}

	got := members[0]
	if got.ID != created.ID || got.FirstName != "Alice" || got.LastName != "Tester" ||
		got.Relationship != "mother" || got.BirthYear != 1950 || got.Status != model.MemberStatusActive {
		t.Errorf("List() member = %+v, want the created fields back", got)
	}
}

func TestMemberUpdatePartial(t *testing.T) {
	svc, _, events := newTestMemberService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "cg-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	newFirst := "Alicia"
	newStatus := "inactive"
	updated, err := svc.Update(ctx, "cg-1", created.ID, UpdateMemberInput{
		FirstName: &newFirst,
		Status:    &newStatus,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.FirstName != "Alicia" {
		t.Errorf("Update() firstName = %q, want Alicia", updated.FirstName)
	}
	if updated.Status != model.MemberStatusInactive {
		t.Errorf("Update() status = %q, want inactive", updated.Status)
	}
	// Untouched fields keep their values.
	if updated.LastName != "Tester" || updated.BirthYear != 1950 {
		t.Errorf("Update() changed absent fields: %+v", updated)
	}

	last := events.events[len(events.events)-1]
	if last.Name != event.MemberUpdated || last.MemberID != created.ID {
		t.Errorf("Update() event = %+v, want member_updated for %s", last, created.ID)
	}
}

func TestMemberUpdateForeignOwnerIsNotFound(t *testing.T) {
	svc, _, events := newTestMemberService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "cg-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	emitted := len(events.events)

	newFirst := "Hijacked"
	_, err = svc.Update(ctx, "cg-2", created.ID, UpdateMemberInput{FirstName: &newFirst})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() as foreign owner error = %v, want ErrNotFound", err)
	}
	if len(events.events) != emitted {
		t.Error("failed update emitted an event")
	}
}

func TestMemberUpdateValidatesBeforeLookup(t *testing.T) {
	svc, _, _ := newTestMemberService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "cg-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Invalid body aimed at a foreign-owned member: the validation error
	// wins over NotFound.
	badYear := 1899
	_, err = svc.Update(ctx, "cg-2", created.ID, UpdateMemberInput{BirthYear: &badYear})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
}

func TestMemberDelete(t *testing.T) {
	svc, repo, events := newTestMemberService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "cg-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, "cg-1", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.members) != 0 {
		t.Error("Delete() left the member in the store")
	}

	last := events.events[len(events.events)-1]
	if last.Name != event.MemberRemoved || last.MemberID != created.ID {
		t.Errorf("Delete() event = %+v, want member_removed for %s", last, created.ID)
	}
}

func TestMemberDeleteForeignOwnerIsNotFound(t *testing.T) {
	svc, repo, _ := newTestMemberService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "cg-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, "cg-2", created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() as foreign owner error = %v, want ErrNotFound", err)
	}
	if len(repo.members) != 1 {
		t.Error("foreign delete removed the member")
	}
}
