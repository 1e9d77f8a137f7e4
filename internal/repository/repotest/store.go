// Package repotest provides in-memory implementations of the repository
// interfaces for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"foodcatalog/internal/model"
	"foodcatalog/internal/repository"

	"github.com/google/uuid"
)

// Store holds every table in memory. Transactions snapshot the whole store
// and restore it when the callback fails.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]model.User
	userRoles     map[uuid.UUID]map[string]bool
	roles         map[string]model.Role
	products      map[uint]model.Product
	nextProductID uint
	audit         []model.AuditLog

	// Failure injection
	AddRolesErr      error
	RemoveRolesErr   error
	DeleteUserErr    error
	UpdateProductErr error
	// VanishOnUpdate deletes the product right before an update is applied
	VanishOnUpdate bool
}

// NewStore returns an empty store seeded with the built-in roles
func NewStore() *Store {
	s := &Store{
		users:     map[uuid.UUID]model.User{},
		userRoles: map[uuid.UUID]map[string]bool{},
		roles:     map[string]model.Role{},
		products:  map[uint]model.Product{},
	}
	for _, name := range []string{model.RoleAdministrator, model.RoleFoodProducer, model.RoleRegularUser} {
		s.roles[name] = model.Role{ID: uuid.New(), Name: name, IsSystem: true}
	}
	return s
}

func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) Roles() repository.RoleRepository       { return &roleRepo{s} }
func (s *Store) Products() repository.ProductRepository { return &productRepo{s} }
func (s *Store) Audit() repository.AuditRepository      { return &auditRepo{s} }
func (s *Store) Tx() repository.TransactionManager      { return &txManager{s} }

// AuditEntries returns a copy of every audit row written so far
func (s *Store) AuditEntries() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.audit...)
}

type snapshot struct {
	users         map[uuid.UUID]model.User
	userRoles     map[uuid.UUID]map[string]bool
	roles         map[string]model.Role
	products      map[uint]model.Product
	nextProductID uint
	audit         []model.AuditLog
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		users:         make(map[uuid.UUID]model.User, len(s.users)),
		userRoles:     make(map[uuid.UUID]map[string]bool, len(s.userRoles)),
		roles:         make(map[string]model.Role, len(s.roles)),
		products:      make(map[uint]model.Product, len(s.products)),
		nextProductID: s.nextProductID,
		audit:         append([]model.AuditLog(nil), s.audit...),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.userRoles {
		set := make(map[string]bool, len(v))
		for name := range v {
			set[name] = true
		}
		snap.userRoles[k] = set
	}
	for k, v := range s.roles {
		snap.roles[k] = v
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.userRoles = snap.userRoles
	s.roles = snap.roles
	s.products = snap.products
	s.nextProductID = snap.nextProductID
	s.audit = snap.audit
}

type txManager struct{ s *Store }

type txMarker struct{}

func (t *txManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	snap := t.s.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// users

type userRepo struct{ s *Store }

func (r *userRepo) withRoles(u model.User) *model.User {
	names := make([]string, 0, len(r.s.userRoles[u.ID]))
	for name := range r.s.userRoles[u.ID] {
		names = append(names, name)
	}
	sort.Strings(names)
	u.Roles = make([]model.Role, 0, len(names))
	for _, name := range names {
		u.Roles = append(u.Roles, r.s.roles[name])
	}
	return &u
}

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.NormalizedUsername = model.NormalizeUsername(user.Username)
	for _, existing := range r.s.users {
		if existing.NormalizedUsername == user.NormalizedUsername {
			return repository.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	stored.Roles = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withRoles(u), nil
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := model.NormalizeUsername(username)
	for _, u := range r.s.users {
		if u.NormalizedUsername == key {
			return r.withRoles(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(_ context.Context) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *r.withRoles(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NormalizedUsername < out[j].NormalizedUsername })
	return out, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.DeleteUserErr != nil {
		return r.s.DeleteUserErr
	}
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.userRoles, id)
	for pid, p := range r.s.products {
		if p.IsOwnedBy(id) {
			delete(r.s.products, pid)
		}
	}
	for i := range r.s.audit {
		if r.s.audit[i].UserID != nil && *r.s.audit[i].UserID == id {
			r.s.audit[i].UserID = nil
		}
	}
	return nil
}

func (r *userRepo) GetRoles(_ context.Context, id uuid.UUID) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	names := []string{}
	for name := range r.s.userRoles[id] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *userRepo) AddToRoles(_ context.Context, id uuid.UUID, roleNames []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.AddRolesErr != nil {
		return r.s.AddRolesErr
	}
	for _, name := range roleNames {
		if _, ok := r.s.roles[name]; !ok {
			return repository.ErrRoleNotFound
		}
	}
	set := r.s.userRoles[id]
	if set == nil {
		set = map[string]bool{}
		r.s.userRoles[id] = set
	}
	for _, name := range roleNames {
		set[name] = true
	}
	return nil
}

func (r *userRepo) RemoveFromRoles(_ context.Context, id uuid.UUID, roleNames []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.RemoveRolesErr != nil {
		return r.s.RemoveRolesErr
	}
	for _, name := range roleNames {
		delete(r.s.userRoles[id], name)
	}
	return nil
}

// roles

type roleRepo struct{ s *Store }

func (r *roleRepo) FindByName(_ context.Context, name string) (*model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (r *roleRepo) Exists(_ context.Context, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.roles[name]
	return ok, nil
}

func (r *roleRepo) ListAll(_ context.Context) ([]model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *roleRepo) FindOrCreate(_ context.Context, role *model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.roles[role.Name]; ok {
		*role = existing
		return nil
	}
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	r.s.roles[role.Name] = *role
	return nil
}

// products

type productRepo struct{ s *Store }

func (r *productRepo) Create(_ context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextProductID++
	product.ID = r.s.nextProductID
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	r.s.products[product.ID] = *product
	return nil
}

func (r *productRepo) Update(_ context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.VanishOnUpdate {
		delete(r.s.products, product.ID)
	}
	if r.s.UpdateProductErr != nil {
		return r.s.UpdateProductErr
	}
	if _, ok := r.s.products[product.ID]; !ok {
		return repository.ErrStaleRecord
	}
	product.UpdatedAt = time.Now()
	r.s.products[product.ID] = *product
	return nil
}

func (r *productRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id uint) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *productRepo) List(_ context.Context, by repository.ProductSort) ([]model.Product, error) {
	r.s.mu.Lock()
	out := make([]model.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, p)
	}
	r.s.mu.Unlock()

	if by.Column == "" {
		by = repository.DefaultProductSort
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareProducts(out[i], out[j], by.Column)
		if c == 0 {
			return out[i].ID < out[j].ID
		}
		if by.Desc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

func compareProducts(a, b model.Product, column string) int {
	switch column {
	case "category":
		return strings.Compare(a.Category, b.Category)
	case "calories":
		return a.Calories.Cmp(b.Calories)
	case "protein":
		return a.Protein.Cmp(b.Protein)
	case "fat":
		return a.Fat.Cmp(b.Fat)
	case "carbohydrates":
		return a.Carbohydrates.Cmp(b.Carbohydrates)
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

func (r *productRepo) ListByProducer(ctx context.Context, producerID uuid.UUID) ([]model.Product, error) {
	all, _ := r.List(ctx, repository.DefaultProductSort)
	out := []model.Product{}
	for _, p := range all {
		if p.IsOwnedBy(producerID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *productRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.products)), nil
}

// audit

type auditRepo struct{ s *Store }

func (r *auditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Details == "" {
		entry.Details = "{}"
	}
	entry.CreatedAt = time.Now()
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

func (r *auditRepo) List(_ context.Context, q repository.AuditQuery) ([]model.AuditLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// newest first
	matched := make([]model.AuditLog, 0, len(r.s.audit))
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		entry := r.s.audit[i]
		if q.Action != "" && entry.Action != q.Action {
			continue
		}
		if q.EntityID != "" && entry.EntityID != q.EntityID {
			continue
		}
		if entry.UserID != nil {
			if u, ok := r.s.users[*entry.UserID]; ok {
				entry.User = &u
			}
		}
		matched = append(matched, entry)
	}
	total := int64(len(matched))

	offset := 0
	if q.Page > 1 {
		offset = (q.Page - 1) * q.Limit
	}
	if offset >= len(matched) {
		return []model.AuditLog{}, total, nil
	}
	end := offset + q.Limit
	if q.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
