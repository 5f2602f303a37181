package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/propernest/lettings/internal/domain"
)

type viewingFixture struct {
	svc       *viewingService
	users     *mockUserRepo
	props     *mockPropertyRepo
	viewings  *mockViewingRepo
	notifs    *mockNotificationRepo
	mail      *mockMailer
	published *mockPublisher

	requester *domain.User
	landlord  *domain.User
	property  *domain.Property
}

func newViewingFixture(t *testing.T) *viewingFixture {
	t.Helper()

	users := newMockUserRepo()
	props := newMockPropertyRepo()
	viewings := newMockViewingRepo()
	notifs := newMockNotificationRepo()
	mail := &mockMailer{}
	published := &mockPublisher{}

	landlord := users.add(&domain.User{
		FirstName: "Lena", LastName: "Hart", Email: "lena@example.com",
		Role: domain.RoleLandlord, IsVerified: true,
	})
	requester := users.add(&domain.User{
		FirstName: "Omar", LastName: "Reyes", Email: "omar@example.com",
		Role: domain.RoleUser, IsVerified: true,
	})
	property := props.add(&domain.Property{
		Address: "12 Rose Lane", Category: "flat", Location: "Leeds",
		Price: 950, YearBuilt: 1998, CreatedBy: landlord.ID,
		Availability: domain.AvailabilityAvailable,
	})

	svc := NewViewingService(viewings, props, users, notifs, mail, published).(*viewingService)

	return &viewingFixture{
		svc: svc, users: users, props: props, viewings: viewings,
		notifs: notifs, mail: mail, published: published,
		requester: requester, landlord: landlord, property: property,
	}
}

func (f *viewingFixture) createRequest(t *testing.T) *domain.ViewingRequest {
	t.Helper()
	vr, err := f.svc.Create(context.Background(), f.requester, &domain.CreateViewingRequest{
		PropertyID:    f.property.ID,
		PreferredDate: time.Date(2025, 7, 1, 14, 30, 0, 0, time.UTC),
		ViewingType:   "in-person",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return vr
}

func TestCreateViewingRequest(t *testing.T) {
	f := newViewingFixture(t)

	vr := f.createRequest(t)

	if vr.OwnerID != f.landlord.ID {
		t.Errorf("OwnerID = %d, want %d (snapshotted from property creator)", vr.OwnerID, f.landlord.ID)
	}
	wantDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if !vr.PreferredDate.Equal(wantDate) {
		t.Errorf("PreferredDate = %v, want %v (midnight UTC)", vr.PreferredDate, wantDate)
	}

	// The requester gets the created notification; the owner hears by
	// email only.
	requested, _ := f.notifs.ListByUser(context.Background(), f.requester.ID)
	if len(requested) != 1 {
		t.Errorf("requester notifications = %d, want 1", len(requested))
	}
	owned, _ := f.notifs.ListByUser(context.Background(), f.landlord.ID)
	if len(owned) != 0 {
		t.Errorf("owner notifications = %d, want 0", len(owned))
	}
	if got := f.mail.byKind("confirmation"); len(got) != 1 || got[0].to != f.requester.Email {
		t.Errorf("confirmation mail = %+v, want one to requester", got)
	}
	if got := f.mail.byKind("owner_alert"); len(got) != 1 || got[0].to != f.landlord.Email {
		t.Errorf("owner alert mail = %+v, want one to landlord", got)
	}
}

func TestCreateViewingRequestDuplicate(t *testing.T) {
	f := newViewingFixture(t)
	f.createRequest(t)

	_, err := f.svc.Create(context.Background(), f.requester, &domain.CreateViewingRequest{
		PropertyID:    f.property.ID,
		PreferredDate: time.Date(2025, 7, 8, 10, 0, 0, 0, time.UTC),
		ViewingType:   "virtual",
	})
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Errorf("duplicate create = %v, want ErrDuplicateRequest", err)
	}
}

func TestCreateViewingRequestPropertyMissing(t *testing.T) {
	f := newViewingFixture(t)

	_, err := f.svc.Create(context.Background(), f.requester, &domain.CreateViewingRequest{
		PropertyID:    999,
		PreferredDate: time.Now(),
		ViewingType:   "in-person",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing property = %v, want ErrNotFound", err)
	}
}

func TestCreateViewingRequestOwnerUnresolvable(t *testing.T) {
	f := newViewingFixture(t)

	orphan := f.props.add(&domain.Property{
		Address: "1 Ghost Road", Category: "house", Location: "Hull",
		Price: 700, YearBuilt: 1970, CreatedBy: 424242,
	})

	_, err := f.svc.Create(context.Background(), f.requester, &domain.CreateViewingRequest{
		PropertyID:    orphan.ID,
		PreferredDate: time.Now(),
		ViewingType:   "in-person",
	})
	if !errors.Is(err, domain.ErrOwnerUnresolvable) {
		t.Errorf("orphan property = %v, want ErrOwnerUnresolvable", err)
	}
}

func TestAcceptMovesRequestToTerminal(t *testing.T) {
	f := newViewingFixture(t)
	decidedAt := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	f.svc.WithClock(func() time.Time { return decidedAt })

	vr := f.createRequest(t)

	rec, err := f.svc.Accept(context.Background(), f.landlord, vr.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if rec.Decision != domain.DecisionAccepted {
		t.Errorf("Decision = %q, want accepted", rec.Decision)
	}
	if !rec.DecidedAt.Equal(decidedAt) {
		t.Errorf("DecidedAt = %v, want %v", rec.DecidedAt, decidedAt)
	}
	if rec.UserID != vr.UserID || rec.PropertyID != vr.PropertyID || rec.OwnerID != vr.OwnerID {
		t.Errorf("terminal record fields %+v do not mirror pending %+v", rec, vr)
	}

	// The pending row is gone.
	if still, _ := f.viewings.FindPendingByID(context.Background(), vr.ID); still != nil {
		t.Error("pending request still present after decision")
	}

	// Requester hears about it, on top of the created notification.
	notifs, _ := f.notifs.ListByUser(context.Background(), f.requester.ID)
	if len(notifs) != 2 {
		t.Errorf("requester notifications = %d, want 2", len(notifs))
	}
	if got := f.mail.byKind("decision_accepted"); len(got) != 1 || got[0].to != f.requester.Email {
		t.Errorf("decision mail = %+v, want one to requester", got)
	}
}

func TestRejectRecordsRejection(t *testing.T) {
	f := newViewingFixture(t)
	vr := f.createRequest(t)

	rec, err := f.svc.Reject(context.Background(), f.landlord, vr.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rec.Decision != domain.DecisionRejected {
		t.Errorf("Decision = %q, want rejected", rec.Decision)
	}

	history, _ := f.viewings.ListDecidedByOwner(context.Background(), f.landlord.ID)
	if len(history) != 1 {
		t.Errorf("owner decided history = %d, want 1", len(history))
	}
}

func TestDecideRequiresOwner(t *testing.T) {
	f := newViewingFixture(t)
	vr := f.createRequest(t)

	// Neither the requester nor an admin may decide; only the
	// snapshotted owner.
	admin := f.users.add(&domain.User{
		FirstName: "Iris", LastName: "Stone", Email: "iris@example.com",
		Role: domain.RoleAdmin, IsVerified: true,
	})

	for _, actor := range []*domain.User{f.requester, admin} {
		if _, err := f.svc.Accept(context.Background(), actor, vr.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("Accept by %s = %v, want ErrForbidden", actor.Role, err)
		}
	}

	// The pending row is untouched.
	if still, _ := f.viewings.FindPendingByID(context.Background(), vr.ID); still == nil {
		t.Error("pending request removed by a forbidden decision attempt")
	}
}

func TestDecideMissingRequest(t *testing.T) {
	f := newViewingFixture(t)

	if _, err := f.svc.Accept(context.Background(), f.landlord, 12345); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Accept missing = %v, want ErrNotFound", err)
	}
}

func TestRepeatDecisionFailsNotFound(t *testing.T) {
	f := newViewingFixture(t)
	vr := f.createRequest(t)

	if _, err := f.svc.Accept(context.Background(), f.landlord, vr.ID); err != nil {
		t.Fatalf("first Accept: %v", err)
	}
	if _, err := f.svc.Reject(context.Background(), f.landlord, vr.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second decision = %v, want ErrNotFound", err)
	}
}

func TestWithdrawOwnRequest(t *testing.T) {
	f := newViewingFixture(t)
	vr := f.createRequest(t)

	if err := f.svc.Withdraw(context.Background(), f.landlord, vr.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Withdraw by owner = %v, want ErrForbidden", err)
	}
	if err := f.svc.Withdraw(context.Background(), f.requester, vr.ID); err != nil {
		t.Fatalf("Withdraw by requester: %v", err)
	}
	if still, _ := f.viewings.FindPendingByID(context.Background(), vr.ID); still != nil {
		t.Error("pending request still present after withdrawal")
	}
}

func TestListByOwnerSpansProperties(t *testing.T) {
	f := newViewingFixture(t)

	second := f.props.add(&domain.Property{
		Address: "3 Mill Court", Category: "house", Location: "Leeds",
		Price: 1200, YearBuilt: 2005, CreatedBy: f.landlord.ID,
	})
	other := f.users.add(&domain.User{
		FirstName: "Nia", LastName: "Okafor", Email: "nia@example.com",
		Role: domain.RoleUser, IsVerified: true,
	})

	f.createRequest(t)
	if _, err := f.svc.Create(context.Background(), other, &domain.CreateViewingRequest{
		PropertyID:    second.ID,
		PreferredDate: time.Now(),
		ViewingType:   "virtual",
	}); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	requests, err := f.svc.ListByOwner(context.Background(), f.landlord.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(requests) != 2 {
		t.Errorf("ListByOwner = %d requests, want 2", len(requests))
	}
}

func TestListByPropertyRequiresOwnerOrAdmin(t *testing.T) {
	f := newViewingFixture(t)
	f.createRequest(t)

	if _, err := f.svc.ListByProperty(context.Background(), f.requester, f.property.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("ListByProperty by requester = %v, want ErrForbidden", err)
	}

	requests, err := f.svc.ListByProperty(context.Background(), f.landlord, f.property.ID)
	if err != nil {
		t.Fatalf("ListByProperty by owner: %v", err)
	}
	if len(requests) != 1 {
		t.Errorf("ListByProperty = %d requests, want 1", len(requests))
	}
}
