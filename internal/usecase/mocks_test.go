package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/repository"
)

// fakeUserRepo is an in-memory port.UserRepository backed by a map keyed on
// user ID.
type fakeUserRepo struct {
	users       map[string]*domain.User
	inventories map[string][]domain.InventoryItem

	createErr error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:       make(map[string]*domain.User),
		inventories: make(map[string][]domain.InventoryItem),
	}
	for _, user := range users {
		u := user
		repo.users[u.ID] = &u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	u := user
	r.users[u.ID] = &u
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByCredentials(_ context.Context, username, passwordHash string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username && user.PasswordHash == passwordHash {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetBySessionToken(_ context.Context, token string) (*domain.User, error) {
	for _, user := range r.users {
		if user.SessionToken != nil && *user.SessionToken == token {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) StoreSession(_ context.Context, userID, token string, expiresAt time.Time) error {
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.SessionToken = &token
	user.SessionExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetToken = &token
	user.ResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) GetByResetToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	for _, user := range r.users {
		if user.ResetToken != nil && *user.ResetToken == token &&
			user.ResetExpiresAt != nil && user.ResetExpiresAt.After(now) {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) ConsumeResetToken(_ context.Context, token, newPasswordHash string, now time.Time) (string, error) {
	for _, user := range r.users {
		if user.ResetToken != nil && *user.ResetToken == token &&
			user.ResetExpiresAt != nil && user.ResetExpiresAt.After(now) {
			user.PasswordHash = newPasswordHash
			user.ResetToken = nil
			user.ResetExpiresAt = nil
			return user.ID, nil
		}
	}
	return "", repository.ErrNotFound
}

func (r *fakeUserRepo) SetProfile(_ context.Context, userID string, profile map[string]any) error {
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Profile = profile
	return nil
}

func (r *fakeUserRepo) SetPoints(_ context.Context, userID string, points int64) error {
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.CurrPoints = points
	return nil
}

func (r *fakeUserRepo) ReplaceInventory(_ context.Context, userID string, items []domain.InventoryItem) error {
	if _, ok := r.users[userID]; !ok {
		return repository.ErrNotFound
	}
	r.inventories[userID] = items
	return nil
}

func (r *fakeUserRepo) ListInventory(_ context.Context, userID string) ([]domain.InventoryItem, error) {
	return r.inventories[userID], nil
}

func (r *fakeUserRepo) SetHeartbeat(_ context.Context, userID string, at time.Time, pos domain.Position) error {
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastHeartbeat = &at
	user.LastPos = &pos
	return nil
}

func (r *fakeUserRepo) ListAll(context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CurrPoints > users[j].CurrPoints })
	return users, nil
}

var _ port.UserRepository = (*fakeUserRepo)(nil)

// fakeShopRepo is an in-memory port.ShopRepository.
type fakeShopRepo struct {
	listings map[string]domain.Listing
}

func newFakeShopRepo(listings ...domain.Listing) *fakeShopRepo {
	repo := &fakeShopRepo{listings: make(map[string]domain.Listing)}
	for _, listing := range listings {
		repo.listings[listing.Name] = listing
	}
	return repo
}

func (r *fakeShopRepo) List(_ context.Context, visibleOnly bool) ([]domain.Listing, error) {
	var out []domain.Listing
	for _, listing := range r.listings {
		if visibleOnly && !listing.Visible {
			continue
		}
		out = append(out, listing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeShopRepo) GetByName(_ context.Context, name string) (*domain.Listing, error) {
	listing, ok := r.listings[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &listing, nil
}

func (r *fakeShopRepo) Create(_ context.Context, listing domain.Listing) error {
	if _, ok := r.listings[listing.Name]; ok {
		return repository.ErrDuplicate
	}
	r.listings[listing.Name] = listing
	return nil
}

func (r *fakeShopRepo) UpdateByName(_ context.Context, listing domain.Listing) error {
	if _, ok := r.listings[listing.Name]; !ok {
		return repository.ErrNotFound
	}
	r.listings[listing.Name] = listing
	return nil
}

func (r *fakeShopRepo) DeleteByName(_ context.Context, name string) error {
	if _, ok := r.listings[name]; !ok {
		return repository.ErrNotFound
	}
	delete(r.listings, name)
	return nil
}

var _ port.ShopRepository = (*fakeShopRepo)(nil)

// fakePurchaseStore simulates the transactional store: InTx snapshots state
// and restores it when the callback fails, mimicking a rollback.
type fakePurchaseStore struct {
	stock     map[string]int64
	points    map[string]int64
	inventory map[string]map[string]*domain.InventoryItem
	orders    []domain.Order
}

func newFakePurchaseStore() *fakePurchaseStore {
	return &fakePurchaseStore{
		stock:     make(map[string]int64),
		points:    make(map[string]int64),
		inventory: make(map[string]map[string]*domain.InventoryItem),
	}
}

func (s *fakePurchaseStore) snapshot() *fakePurchaseStore {
	clone := newFakePurchaseStore()
	for k, v := range s.stock {
		clone.stock[k] = v
	}
	for k, v := range s.points {
		clone.points[k] = v
	}
	for userID, items := range s.inventory {
		clone.inventory[userID] = make(map[string]*domain.InventoryItem, len(items))
		for name, item := range items {
			copy := *item
			clone.inventory[userID][name] = &copy
		}
	}
	clone.orders = append([]domain.Order(nil), s.orders...)
	return clone
}

func (s *fakePurchaseStore) restore(from *fakePurchaseStore) {
	s.stock = from.stock
	s.points = from.points
	s.inventory = from.inventory
	s.orders = from.orders
}

func (s *fakePurchaseStore) InTx(_ context.Context, fn func(port.PurchaseStore) error) error {
	saved := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *fakePurchaseStore) DecrementStock(_ context.Context, listingName string) error {
	if s.stock[listingName] <= 0 {
		return repository.ErrNotFound
	}
	s.stock[listingName]--
	return nil
}

func (s *fakePurchaseStore) DebitPoints(_ context.Context, userID string, amount int64) error {
	if s.points[userID] < amount {
		return repository.ErrNotFound
	}
	s.points[userID] -= amount
	return nil
}

func (s *fakePurchaseStore) AddToInventory(_ context.Context, userID string, item domain.InventoryItem) error {
	items, ok := s.inventory[userID]
	if !ok {
		items = make(map[string]*domain.InventoryItem)
		s.inventory[userID] = items
	}
	if existing, ok := items[item.Name]; ok {
		existing.Quantity++
		return nil
	}
	copy := item
	copy.Quantity = 1
	items[item.Name] = &copy
	return nil
}

func (s *fakePurchaseStore) CreateOrder(_ context.Context, order domain.Order) error {
	s.orders = append(s.orders, order)
	return nil
}

func (s *fakePurchaseStore) OldestUnfulfilledOrder(_ context.Context, username, listingName string) (*domain.Order, error) {
	var oldest *domain.Order
	for i := range s.orders {
		order := &s.orders[i]
		if order.Username != username || order.Name != listingName || order.Fulfilled {
			continue
		}
		if oldest == nil || order.PlacedAt.Before(oldest.PlacedAt) {
			oldest = order
		}
	}
	if oldest == nil {
		return nil, repository.ErrNotFound
	}
	copy := *oldest
	return &copy, nil
}

func (s *fakePurchaseStore) MarkOrderFulfilled(_ context.Context, orderID string) error {
	for i := range s.orders {
		if s.orders[i].ID == orderID && !s.orders[i].Fulfilled {
			s.orders[i].Fulfilled = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakePurchaseStore) IncrementFulfilled(_ context.Context, username, listingName string) error {
	// The fake keys inventory by user ID upstream; tests wire username==userID
	// where the distinction does not matter.
	for _, items := range s.inventory {
		if item, ok := items[listingName]; ok {
			item.Fulfilled++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakePurchaseStore) ListOrders(context.Context) ([]domain.Order, error) {
	return append([]domain.Order(nil), s.orders...), nil
}

var _ port.PurchaseStore = (*fakePurchaseStore)(nil)

// fakeMailer records messages and can be told to fail.
type fakeMailer struct {
	sent []port.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg port.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var _ port.Mailer = (*fakeMailer)(nil)

// fakePublisher counts published events per type.
type fakePublisher struct {
	accountCreated  int
	resetRequested  int
	passwordChanged int
	purchases       int
	fulfillments    int
}

func (p *fakePublisher) PublishAccountCreated(context.Context, domain.AccountCreatedEvent) error {
	p.accountCreated++
	return nil
}

func (p *fakePublisher) PublishPasswordResetRequested(context.Context, domain.PasswordResetRequestedEvent) error {
	p.resetRequested++
	return nil
}

func (p *fakePublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	p.passwordChanged++
	return nil
}

func (p *fakePublisher) PublishPurchaseCompleted(context.Context, domain.PurchaseCompletedEvent) error {
	p.purchases++
	return nil
}

func (p *fakePublisher) PublishOrderFulfilled(context.Context, domain.OrderFulfilledEvent) error {
	p.fulfillments++
	return nil
}

var _ port.EventPublisher = (*fakePublisher)(nil)

var errStorage = errors.New("storage unavailable")

func userFixture(id, username, passwordHash string) domain.User {
	return domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
