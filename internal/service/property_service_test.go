package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/pkg/cache"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	gets    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func TestListAllCachesCatalogue(t *testing.T) {
	props := newMockPropertyRepo()
	notifs := newMockNotificationRepo()
	mem := newMemoryCache()
	bus := &mockPublisher{}
	svc := NewPropertyService(props, notifs, mem, &mockMailer{}, bus)

	props.add(&domain.Property{Address: "12 Rose Lane", Category: "flat", Location: "Leeds", Price: 950, YearBuilt: 1998, CreatedBy: 1})

	first, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("ListAll = %d properties, want 1", len(first))
	}
	if mem.sets != 1 {
		t.Errorf("cache sets = %d, want 1 after first read", mem.sets)
	}

	// Second read is served from the cache even if the store changes
	// underneath.
	props.add(&domain.Property{Address: "3 Mill Court", Category: "house", Location: "Leeds", Price: 1200, YearBuilt: 2005, CreatedBy: 1})
	second, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll cached: %v", err)
	}
	if len(second) != 1 {
		t.Errorf("cached ListAll = %d properties, want 1 (stale by design)", len(second))
	}
}

func TestAddInvalidatesCache(t *testing.T) {
	props := newMockPropertyRepo()
	notifs := newMockNotificationRepo()
	mem := newMemoryCache()
	bus := &mockPublisher{}
	mail := &mockMailer{}
	svc := NewPropertyService(props, notifs, mem, mail, bus)

	owner := &domain.User{ID: 1, Role: domain.RoleLandlord, Email: "lena@example.com"}

	if _, err := svc.ListAll(context.Background()); err != nil {
		t.Fatalf("ListAll: %v", err)
	}

	created, err := svc.Add(context.Background(), owner, &domain.CreatePropertyRequest{
		Address: "12 Rose Lane", Category: "flat", Location: "Leeds", Price: 950, YearBuilt: 1998,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.CreatedBy != owner.ID {
		t.Errorf("CreatedBy = %d, want %d", created.CreatedBy, owner.ID)
	}

	// The stale catalogue entry was dropped, so the new listing shows.
	listed, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll after add: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("ListAll after add = %d properties, want 1", len(listed))
	}

	// Owner got a notification and a confirmation email.
	owned, _ := notifs.ListByUser(context.Background(), owner.ID)
	if len(owned) != 1 {
		t.Errorf("owner notifications = %d, want 1", len(owned))
	}
	if got := mail.byKind("property_listed"); len(got) != 1 || got[0].to != owner.Email {
		t.Errorf("listing confirmation mail = %v, want one to %s", got, owner.Email)
	}
}

func TestAddValidation(t *testing.T) {
	svc := NewPropertyService(newMockPropertyRepo(), newMockNotificationRepo(), newMemoryCache(), &mockMailer{}, &mockPublisher{})
	owner := &domain.User{ID: 1, Role: domain.RoleLandlord}

	_, err := svc.Add(context.Background(), owner, &domain.CreatePropertyRequest{Address: "  ", Category: "flat", Location: "Leeds", Price: 950, YearBuilt: 1998})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Add without address = %v, want ErrValidation", err)
	}
}

func TestToggleFavorite(t *testing.T) {
	props := newMockPropertyRepo()
	favs := newMockFavoriteRepo()
	svc := NewFavoriteService(favs, props)

	p := props.add(&domain.Property{Address: "12 Rose Lane", Category: "flat", Location: "Leeds", Price: 950, YearBuilt: 1998, CreatedBy: 2})

	res, err := svc.Toggle(context.Background(), 1, p.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !res.Added {
		t.Error("first toggle should add")
	}

	res, err = svc.Toggle(context.Background(), 1, p.ID)
	if err != nil {
		t.Fatalf("Toggle back: %v", err)
	}
	if res.Added {
		t.Error("second toggle should remove")
	}

	list, _ := svc.List(context.Background(), 1)
	if len(list) != 0 {
		t.Errorf("favorites = %d, want 0 after toggle off", len(list))
	}

	if _, err := svc.Toggle(context.Background(), 1, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("toggle on missing property = %v, want ErrNotFound", err)
	}
}
