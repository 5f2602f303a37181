package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/propernest/lettings/internal/domain"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *mockUserRepo) add(u *domain.User) *domain.User {
	if u.ID == 0 {
		u.ID = m.nextID
		m.nextID++
	} else if u.ID >= m.nextID {
		m.nextID = u.ID + 1
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == req.Email {
			return nil, domain.ErrConflict
		}
	}
	u := &domain.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
	}
	return m.add(u), nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.IsVerified = true
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) SaveSecurityState(_ context.Context, u *domain.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id int64, role string) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

type mockSessionRepo struct {
	sessions map[int64]*domain.User
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[int64]*domain.User)}
}

func (m *mockSessionRepo) Save(_ context.Context, user *domain.User, _ time.Duration) error {
	snapshot := *user
	m.sessions[user.ID] = &snapshot
	return nil
}

func (m *mockSessionRepo) Find(_ context.Context, userID int64) (*domain.User, error) {
	return m.sessions[userID], nil
}

func (m *mockSessionRepo) Delete(_ context.Context, userID int64) error {
	delete(m.sessions, userID)
	return nil
}

type mockPropertyRepo struct {
	properties map[int64]*domain.Property
	nextID     int64
}

func newMockPropertyRepo() *mockPropertyRepo {
	return &mockPropertyRepo{properties: make(map[int64]*domain.Property), nextID: 1}
}

func (m *mockPropertyRepo) add(p *domain.Property) *domain.Property {
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	} else if p.ID >= m.nextID {
		m.nextID = p.ID + 1
	}
	m.properties[p.ID] = p
	return p
}

func (m *mockPropertyRepo) Create(_ context.Context, ownerID int64, req *domain.CreatePropertyRequest) (*domain.Property, error) {
	p := &domain.Property{
		Address:      req.Address,
		Availability: domain.AvailabilityAvailable,
		Category:     req.Category,
		Description:  req.Description,
		Location:     req.Location,
		Phone:        req.Phone,
		Price:        req.Price,
		YearBuilt:    req.YearBuilt,
		CreatedBy:    ownerID,
		CreatedAt:    time.Now(),
	}
	return m.add(p), nil
}

func (m *mockPropertyRepo) FindByID(_ context.Context, id int64) (*domain.Property, error) {
	return m.properties[id], nil
}

func (m *mockPropertyRepo) ListAll(_ context.Context) ([]domain.Property, error) {
	var out []domain.Property
	for _, p := range m.properties {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPropertyRepo) List(_ context.Context, _, _ int) ([]domain.Property, error) {
	return m.ListAll(context.Background())
}

func (m *mockPropertyRepo) ListByOwner(_ context.Context, ownerID int64) ([]domain.Property, error) {
	var out []domain.Property
	for _, p := range m.properties {
		if p.CreatedBy == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPropertyRepo) OwnedIDs(_ context.Context, ownerID int64) ([]int64, error) {
	var ids []int64
	for _, p := range m.properties {
		if p.CreatedBy == ownerID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

type mockViewingRepo struct {
	pending map[int64]*domain.ViewingRequest
	decided map[int64]*domain.DecidedRequest
	nextID  int64
}

func newMockViewingRepo() *mockViewingRepo {
	return &mockViewingRepo{
		pending: make(map[int64]*domain.ViewingRequest),
		decided: make(map[int64]*domain.DecidedRequest),
		nextID:  1,
	}
}

func (m *mockViewingRepo) CreatePending(_ context.Context, req *domain.ViewingRequest) (*domain.ViewingRequest, error) {
	for _, vr := range m.pending {
		if vr.UserID == req.UserID && vr.PropertyID == req.PropertyID {
			return nil, domain.ErrDuplicateRequest
		}
	}
	vr := *req
	vr.ID = m.nextID
	m.nextID++
	vr.CreatedAt = time.Now()
	vr.UpdatedAt = vr.CreatedAt
	m.pending[vr.ID] = &vr
	return &vr, nil
}

func (m *mockViewingRepo) FindPendingByID(_ context.Context, id int64) (*domain.ViewingRequest, error) {
	return m.pending[id], nil
}

func (m *mockViewingRepo) PendingExists(_ context.Context, userID, propertyID int64) (bool, error) {
	for _, vr := range m.pending {
		if vr.UserID == userID && vr.PropertyID == propertyID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockViewingRepo) DeletePending(_ context.Context, id int64) error {
	if _, ok := m.pending[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.pending, id)
	return nil
}

func (m *mockViewingRepo) ListPendingByRequester(_ context.Context, userID int64) ([]domain.ViewingRequest, error) {
	var out []domain.ViewingRequest
	for _, vr := range m.pending {
		if vr.UserID == userID {
			out = append(out, *vr)
		}
	}
	return out, nil
}

func (m *mockViewingRepo) ListPendingByProperty(_ context.Context, propertyID int64) ([]domain.ViewingRequest, error) {
	var out []domain.ViewingRequest
	for _, vr := range m.pending {
		if vr.PropertyID == propertyID {
			out = append(out, *vr)
		}
	}
	return out, nil
}

func (m *mockViewingRepo) ListPendingByProperties(_ context.Context, propertyIDs []int64) ([]domain.ViewingRequest, error) {
	ids := make(map[int64]bool, len(propertyIDs))
	for _, id := range propertyIDs {
		ids[id] = true
	}
	var out []domain.ViewingRequest
	for _, vr := range m.pending {
		if ids[vr.PropertyID] {
			out = append(out, *vr)
		}
	}
	return out, nil
}

func (m *mockViewingRepo) CreateDecided(_ context.Context, rec *domain.DecidedRequest) (*domain.DecidedRequest, error) {
	r := *rec
	r.ID = m.nextID
	m.nextID++
	m.decided[r.ID] = &r
	return &r, nil
}

func (m *mockViewingRepo) ListDecidedByOwner(_ context.Context, ownerID int64) ([]domain.DecidedRequest, error) {
	var out []domain.DecidedRequest
	for _, r := range m.decided {
		if r.OwnerID == ownerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type mockNotificationRepo struct {
	notifications []*domain.Notification
	nextID        int64
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{nextID: 1}
}

func (m *mockNotificationRepo) Create(_ context.Context, userID int64, title, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:        m.nextID,
		UserID:    userID,
		Title:     title,
		Message:   message,
		Status:    domain.NotificationUnread,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.notifications = append(m.notifications, n)
	return n, nil
}

func (m *mockNotificationRepo) FindByID(_ context.Context, id int64) (*domain.Notification, error) {
	for _, n := range m.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID int64) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) ListAll(_ context.Context, _, _ int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range m.notifications {
		out = append(out, *n)
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id int64) error {
	for _, n := range m.notifications {
		if n.ID == id {
			n.Status = domain.NotificationRead
			return nil
		}
	}
	return pgx.ErrNoRows
}

type mockFavoriteRepo struct {
	favorites map[int64]*domain.Favorite
	nextID    int64
}

func newMockFavoriteRepo() *mockFavoriteRepo {
	return &mockFavoriteRepo{favorites: make(map[int64]*domain.Favorite), nextID: 1}
}

func (m *mockFavoriteRepo) Find(_ context.Context, userID, propertyID int64) (*domain.Favorite, error) {
	for _, f := range m.favorites {
		if f.UserID == userID && f.PropertyID == propertyID {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockFavoriteRepo) Create(_ context.Context, userID, propertyID int64) (*domain.Favorite, error) {
	if f, _ := m.Find(context.Background(), userID, propertyID); f != nil {
		return nil, domain.ErrConflict
	}
	f := &domain.Favorite{ID: m.nextID, UserID: userID, PropertyID: propertyID, AddedAt: time.Now()}
	m.nextID++
	m.favorites[f.ID] = f
	return f, nil
}

func (m *mockFavoriteRepo) Delete(_ context.Context, userID, propertyID int64) error {
	for id, f := range m.favorites {
		if f.UserID == userID && f.PropertyID == propertyID {
			delete(m.favorites, id)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockFavoriteRepo) ListByUser(_ context.Context, userID int64) ([]domain.FavoriteWithProperty, error) {
	var out []domain.FavoriteWithProperty
	for _, f := range m.favorites {
		if f.UserID == userID {
			out = append(out, domain.FavoriteWithProperty{Favorite: *f})
		}
	}
	return out, nil
}

type sentMail struct {
	kind  string
	to    string
	token string
	code  int
}

type mockMailer struct {
	sent    []sentMail
	sendErr error
}

func (m *mockMailer) SendActivationEmail(toEmail, _, token string, code int) error {
	m.sent = append(m.sent, sentMail{kind: "activation", to: toEmail, token: token, code: code})
	return m.sendErr
}

func (m *mockMailer) SendPasswordResetEmail(toEmail, _, token string, code int) error {
	m.sent = append(m.sent, sentMail{kind: "reset", to: toEmail, token: token, code: code})
	return m.sendErr
}

func (m *mockMailer) SendPropertyConfirmation(toEmail, _, _ string) error {
	m.sent = append(m.sent, sentMail{kind: "property_listed", to: toEmail})
	return m.sendErr
}

func (m *mockMailer) SendViewingConfirmation(toEmail, _, _ string, _ time.Time) error {
	m.sent = append(m.sent, sentMail{kind: "confirmation", to: toEmail})
	return m.sendErr
}

func (m *mockMailer) SendOwnerViewingAlert(toEmail, _, _, _ string, _ time.Time) error {
	m.sent = append(m.sent, sentMail{kind: "owner_alert", to: toEmail})
	return m.sendErr
}

func (m *mockMailer) SendViewingDecision(toEmail, _, _ string, _ time.Time, decision domain.Decision) error {
	m.sent = append(m.sent, sentMail{kind: "decision_" + string(decision), to: toEmail})
	return m.sendErr
}

func (m *mockMailer) byKind(kind string) []sentMail {
	var out []sentMail
	for _, s := range m.sent {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.events = append(m.events, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) subjects() []string {
	var out []string
	for _, e := range m.events {
		out = append(out, e.subject)
	}
	return out
}
