package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"copycorner/internal/model"
	"copycorner/internal/repository"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for Postgres shared by every fake
// repository below. Rows are stored by value so callers never alias them.
type memStore struct {
	tick int

	sequences    map[model.EntityKind]model.Sequence
	categories   map[uuid.UUID]model.Category
	products     map[uuid.UUID]model.Product
	serviceTypes map[uuid.UUID]model.ServiceType
	groups       map[uuid.UUID]model.Group
	users        map[uuid.UUID]model.User
	staff        map[uuid.UUID]model.Staff // keyed by user id
	schedules    map[uuid.UUID]model.Schedule
	txns         map[uuid.UUID]model.Transaction
	movements    []model.StockMovement
	audits       []model.AuditLog

	// failSetCode makes renumbering fail, to exercise best-effort renumbering.
	failSetCode bool

	// locks lists every row lock taken, in order. It survives rollbacks.
	locks []rowLock
}

type rowLock struct {
	Kind     model.EntityKind
	ID       uuid.UUID
	Strength string
}

func (s *memStore) lock(kind model.EntityKind, id uuid.UUID, strength string) {
	s.locks = append(s.locks, rowLock{Kind: kind, ID: id, Strength: strength})
}

// lockStrengths returns the strengths requested on one row, oldest first.
func (s *memStore) lockStrengths(kind model.EntityKind, id uuid.UUID) []string {
	var out []string
	for _, l := range s.locks {
		if l.Kind == kind && l.ID == id {
			out = append(out, l.Strength)
		}
	}
	return out
}

var storeEpoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func newMemStore() *memStore {
	return &memStore{
		sequences:    map[model.EntityKind]model.Sequence{},
		categories:   map[uuid.UUID]model.Category{},
		products:     map[uuid.UUID]model.Product{},
		serviceTypes: map[uuid.UUID]model.ServiceType{},
		groups:       map[uuid.UUID]model.Group{},
		users:        map[uuid.UUID]model.User{},
		staff:        map[uuid.UUID]model.Staff{},
		schedules:    map[uuid.UUID]model.Schedule{},
		txns:         map[uuid.UUID]model.Transaction{},
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memStore {
	return memStore{
		tick:         s.tick,
		sequences:    copyMap(s.sequences),
		categories:   copyMap(s.categories),
		products:     copyMap(s.products),
		serviceTypes: copyMap(s.serviceTypes),
		groups:       copyMap(s.groups),
		users:        copyMap(s.users),
		staff:        copyMap(s.staff),
		schedules:    copyMap(s.schedules),
		txns:         copyMap(s.txns),
		movements:    append([]model.StockMovement(nil), s.movements...),
		audits:       append([]model.AuditLog(nil), s.audits...),
		failSetCode:  s.failSetCode,
	}
}

func (s *memStore) restore(snap memStore) {
	// tick keeps growing so rows created after a rollback still sort last
	tick, locks := s.tick, s.locks
	*s = snap
	s.tick, s.locks = tick, locks
}

// stamp assigns an id and a strictly increasing creation time.
func (s *memStore) stamp(id *uuid.UUID, createdAt *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if createdAt.IsZero() {
		s.tick++
		*createdAt = storeEpoch.Add(time.Duration(s.tick) * time.Second)
	}
}

// memTxManager runs fn directly and rolls the store back when it fails,
// which is how both a transaction and a savepoint behave.
type memTxManager struct {
	s *memStore
}

func (m *memTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	snap := m.s.snapshot()
	if err := fn(ctx); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

func sameRef(a *uuid.UUID, b uuid.UUID) bool {
	return a != nil && *a == b
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func paginateSlice[T any](items []T, p *pagination.Params) ([]T, int64) {
	total := int64(len(items))
	if p == nil {
		return items, total
	}
	p.Clamp(total)
	start := p.Offset
	if start > len(items) {
		start = len(items)
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}

type archivedRow struct {
	state     model.ArchiveState
	createdAt time.Time
	id        uuid.UUID
}

// lessArchived mirrors orderArchived in the real repositories.
func lessArchived(archived bool, a, b archivedRow) bool {
	if archived {
		at, bt := a.state.ArchivedAt, b.state.ArchivedAt
		if at != nil && bt != nil && !at.Equal(*bt) {
			return at.After(*bt)
		}
		return a.id.String() < b.id.String()
	}
	if !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.Before(b.createdAt)
	}
	return a.id.String() < b.id.String()
}

func (s *memStore) categoryRef(id *uuid.UUID) *model.Category {
	if id == nil {
		return nil
	}
	c, ok := s.categories[*id]
	if !ok {
		return nil
	}
	return &c
}

func (s *memStore) groupRef(id *uuid.UUID) *model.Group {
	if id == nil {
		return nil
	}
	g, ok := s.groups[*id]
	if !ok {
		return nil
	}
	return &g
}

// ---- lifecycle ----

type memLifecycleRepo struct{ s *memStore }

func (r *memLifecycleRepo) record(kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error) {
	s := r.s
	switch kind {
	case model.KindCategory:
		if c, ok := s.categories[id]; ok {
			return &model.LifecycleRecord{ID: id, Key: c.Name, Label: c.Name, ArchiveState: c.ArchiveState}, nil
		}
	case model.KindProduct:
		if p, ok := s.products[id]; ok {
			return &model.LifecycleRecord{ID: id, Key: p.Name, Label: p.Name, ParentID: p.CategoryID, ArchiveState: p.ArchiveState}, nil
		}
	case model.KindServiceType:
		if st, ok := s.serviceTypes[id]; ok {
			return &model.LifecycleRecord{ID: id, Key: st.Name, Label: st.Name, ParentID: st.CategoryID, ArchiveState: st.ArchiveState}, nil
		}
	case model.KindGroup:
		if g, ok := s.groups[id]; ok {
			return &model.LifecycleRecord{ID: id, Key: g.Name, Label: g.Name, ArchiveState: g.ArchiveState}, nil
		}
	case model.KindUser:
		if u, ok := s.users[id]; ok {
			return &model.LifecycleRecord{ID: id, Key: u.Username, Label: u.Username, ParentID: u.GroupID, ArchiveState: u.ArchiveState}, nil
		}
	case model.KindTransaction:
		if t, ok := s.txns[id]; ok {
			return &model.LifecycleRecord{ID: id, Label: t.Code, ArchiveState: t.ArchiveState}, nil
		}
	case model.KindSchedule:
		if sc, ok := s.schedules[id]; ok {
			return &model.LifecycleRecord{ID: id, Label: sc.Day + " " + sc.StartTime}, nil
		}
	default:
		return nil, errors.New("unknown kind " + string(kind))
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLifecycleRepo) LockForUpdate(_ context.Context, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error) {
	r.s.lock(kind, id, "UPDATE")
	return r.record(kind, id)
}

func (r *memLifecycleRepo) LockForShare(_ context.Context, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error) {
	r.s.lock(kind, id, "SHARE")
	return r.record(kind, id)
}

func (r *memLifecycleRepo) KeyTaken(_ context.Context, kind model.EntityKind, key string, exclude uuid.UUID) (bool, error) {
	s := r.s
	taken := func(id uuid.UUID, k string, st model.ArchiveState) bool {
		return id != exclude && !st.IsArchived && k == key
	}
	switch kind {
	case model.KindCategory:
		for id, c := range s.categories {
			if taken(id, c.Name, c.ArchiveState) {
				return true, nil
			}
		}
	case model.KindProduct:
		for id, p := range s.products {
			if taken(id, p.Name, p.ArchiveState) {
				return true, nil
			}
		}
	case model.KindServiceType:
		for id, st := range s.serviceTypes {
			if taken(id, st.Name, st.ArchiveState) {
				return true, nil
			}
		}
	case model.KindGroup:
		for id, g := range s.groups {
			if taken(id, g.Name, g.ArchiveState) {
				return true, nil
			}
		}
	case model.KindUser:
		for id, u := range s.users {
			if taken(id, u.Username, u.ArchiveState) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *memLifecycleRepo) SetState(_ context.Context, kind model.EntityKind, id uuid.UUID, state model.ArchiveState, now time.Time) error {
	s := r.s
	switch kind {
	case model.KindCategory:
		c := s.categories[id]
		c.ArchiveState, c.UpdatedAt = state, now
		s.categories[id] = c
	case model.KindProduct:
		p := s.products[id]
		p.ArchiveState, p.UpdatedAt = state, now
		s.products[id] = p
	case model.KindServiceType:
		st := s.serviceTypes[id]
		st.ArchiveState, st.UpdatedAt = state, now
		s.serviceTypes[id] = st
	case model.KindGroup:
		g := s.groups[id]
		g.ArchiveState, g.UpdatedAt = state, now
		s.groups[id] = g
	case model.KindUser:
		u := s.users[id]
		u.ArchiveState, u.UpdatedAt = state, now
		s.users[id] = u
	case model.KindTransaction:
		t := s.txns[id]
		t.ArchiveState, t.UpdatedAt = state, now
		s.txns[id] = t
	default:
		return errors.New("kind is not archivable")
	}
	return nil
}

// Purge deletes the row and applies the ON DELETE actions of the schema.
func (r *memLifecycleRepo) Purge(_ context.Context, kind model.EntityKind, id uuid.UUID) (bool, error) {
	s := r.s
	if _, err := r.record(kind, id); err != nil {
		return false, nil
	}
	switch kind {
	case model.KindCategory:
		delete(s.categories, id)
		for k, p := range s.products {
			if sameRef(p.CategoryID, id) {
				p.CategoryID = nil
				s.products[k] = p
			}
		}
		for k, st := range s.serviceTypes {
			if sameRef(st.CategoryID, id) {
				st.CategoryID = nil
				s.serviceTypes[k] = st
			}
		}
	case model.KindProduct:
		delete(s.products, id)
		for k, t := range s.txns {
			if sameRef(t.ProductID, id) {
				t.ProductID = nil
				s.txns[k] = t
			}
		}
	case model.KindServiceType:
		delete(s.serviceTypes, id)
		for k, t := range s.txns {
			if sameRef(t.ServiceTypeID, id) {
				t.ServiceTypeID = nil
				s.txns[k] = t
			}
		}
	case model.KindGroup:
		delete(s.groups, id)
		for k, u := range s.users {
			if sameRef(u.GroupID, id) {
				u.GroupID = nil
				s.users[k] = u
			}
		}
	case model.KindUser:
		delete(s.users, id)
		delete(s.staff, id)
		for k, sc := range s.schedules {
			if sameRef(sc.StaffID, id) {
				sc.StaffID = nil
				s.schedules[k] = sc
			}
		}
		for i := range s.audits {
			if sameRef(s.audits[i].UserID, id) {
				s.audits[i].UserID = nil
			}
		}
	case model.KindTransaction:
		delete(s.txns, id)
	case model.KindSchedule:
		delete(s.schedules, id)
	}
	return true, nil
}

// ---- sequences ----

type memSequenceRepo struct{ s *memStore }

func (r *memSequenceRepo) Lock(_ context.Context, kind model.EntityKind) (*model.Sequence, error) {
	seq, ok := r.s.sequences[kind]
	if !ok {
		seq = model.Sequence{Kind: kind}
		r.s.sequences[kind] = seq
	}
	return &seq, nil
}

func (r *memSequenceRepo) Save(_ context.Context, seq *model.Sequence) error {
	r.s.sequences[seq.Kind] = *seq
	return nil
}

func (r *memSequenceRepo) CountActive(ctx context.Context, kind model.EntityKind) (int64, error) {
	codes, err := r.ActiveCodes(ctx, kind)
	return int64(len(codes)), err
}

func (r *memSequenceRepo) ActiveCodes(_ context.Context, kind model.EntityKind) ([]model.CodedRecord, error) {
	var out []model.CodedRecord
	switch kind {
	case model.KindProduct:
		for _, p := range r.s.products {
			if !p.IsArchived {
				out = append(out, model.CodedRecord{ID: p.ID, Code: p.Code, CreatedAt: p.CreatedAt})
			}
		}
	case model.KindServiceType:
		for _, st := range r.s.serviceTypes {
			if !st.IsArchived {
				out = append(out, model.CodedRecord{ID: st.ID, Code: st.Code, CreatedAt: st.CreatedAt})
			}
		}
	case model.KindTransaction:
		for _, t := range r.s.txns {
			if !t.IsArchived {
				out = append(out, model.CodedRecord{ID: t.ID, Code: t.Code, CreatedAt: t.CreatedAt})
			}
		}
	default:
		return nil, errors.New("kind has no codes")
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *memSequenceRepo) SetCode(_ context.Context, kind model.EntityKind, id uuid.UUID, code string) error {
	if r.s.failSetCode {
		return errors.New("renumber write failed")
	}
	switch kind {
	case model.KindProduct:
		p := r.s.products[id]
		p.Code = code
		r.s.products[id] = p
	case model.KindServiceType:
		st := r.s.serviceTypes[id]
		st.Code = code
		r.s.serviceTypes[id] = st
	case model.KindTransaction:
		t := r.s.txns[id]
		t.Code = code
		r.s.txns[id] = t
	}
	return nil
}

// ---- dependencies ----

type memDependencyRepo struct{ s *memStore }

type memDependent struct {
	parent    *uuid.UUID
	ref       model.DependentRef
	createdAt time.Time
}

func (r *memDependencyRepo) dependents(kind model.EntityKind) []memDependent {
	var out []memDependent
	switch kind {
	case model.KindProduct:
		for _, p := range r.s.products {
			if !p.IsArchived {
				out = append(out, memDependent{p.CategoryID, model.DependentRef{Kind: kind, ID: p.ID, Label: p.Name, Context: p.Code}, p.CreatedAt})
			}
		}
	case model.KindServiceType:
		for _, st := range r.s.serviceTypes {
			if !st.IsArchived && st.Status == model.StatusActive {
				out = append(out, memDependent{st.CategoryID, model.DependentRef{Kind: kind, ID: st.ID, Label: st.Name, Context: st.Code}, st.CreatedAt})
			}
		}
	case model.KindTransaction:
		for _, t := range r.s.txns {
			if !t.IsArchived {
				out = append(out, memDependent{t.ServiceTypeID, model.DependentRef{Kind: kind, ID: t.ID, Label: t.Code, Context: t.CustomerName + " · " + t.Status}, t.CreatedAt})
			}
		}
	case model.KindUser:
		for _, u := range r.s.users {
			if !u.IsArchived {
				out = append(out, memDependent{u.GroupID, model.DependentRef{Kind: kind, ID: u.ID, Label: u.Username, Context: u.Name}, u.CreatedAt})
			}
		}
	case model.KindSchedule:
		for _, sc := range r.s.schedules {
			out = append(out, memDependent{sc.StaffID, model.DependentRef{Kind: kind, ID: sc.ID, Label: sc.Day, Context: sc.StartTime + "-" + sc.EndTime}, sc.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].createdAt.Before(out[j].createdAt) })
	return out
}

func (r *memDependencyRepo) Count(_ context.Context, rule model.DependencyRule, parentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(parentIDs))
	wanted := make(map[uuid.UUID]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}
	for _, d := range r.dependents(rule.Dependent) {
		if d.parent != nil && wanted[*d.parent] {
			counts[*d.parent]++
		}
	}
	return counts, nil
}

func (r *memDependencyRepo) Sample(_ context.Context, rule model.DependencyRule, parentID uuid.UUID, limit int) ([]model.DependentRef, error) {
	var refs []model.DependentRef
	for _, d := range r.dependents(rule.Dependent) {
		if sameRef(d.parent, parentID) && len(refs) < limit {
			refs = append(refs, d.ref)
		}
	}
	return refs, nil
}

// ---- audit ----

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.s.stamp(&entry.ID, &entry.CreatedAt)
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, p *pagination.Params) ([]model.AuditLog, int64, error) {
	logs := make([]model.AuditLog, 0, len(r.s.audits))
	for i := len(r.s.audits) - 1; i >= 0; i-- {
		entry := r.s.audits[i]
		if entry.UserID != nil {
			if u, ok := r.s.users[*entry.UserID]; ok {
				entry.User = &u
			}
		}
		logs = append(logs, entry)
	}
	items, total := paginateSlice(logs, p)
	return items, total, nil
}

func (s *memStore) actions(action string) []model.AuditLog {
	var out []model.AuditLog
	for _, a := range s.audits {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}

// ---- categories ----

type memCategoryRepo struct{ s *memStore }

func (r *memCategoryRepo) Create(_ context.Context, c *model.Category) error {
	r.s.stamp(&c.ID, &c.CreatedAt)
	r.s.categories[c.ID] = *c
	return nil
}

func (r *memCategoryRepo) Update(_ context.Context, c *model.Category) error {
	r.s.categories[c.ID] = *c
	return nil
}

func (r *memCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *memCategoryRepo) List(_ context.Context, f repository.ListFilter, p *pagination.Params) ([]model.Category, int64, error) {
	var out []model.Category
	for _, c := range r.s.categories {
		if c.IsArchived != f.Archived || (f.Search != "" && !containsFold(c.Name, f.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessArchived(f.Archived, archivedRow{out[i].ArchiveState, out[i].CreatedAt, out[i].ID}, archivedRow{out[j].ArchiveState, out[j].CreatedAt, out[j].ID})
	})
	items, total := paginateSlice(out, p)
	return items, total, nil
}

// ---- products ----

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Create(_ context.Context, p *model.Product) error {
	r.s.stamp(&p.ID, &p.CreatedAt)
	row := *p
	row.Category = nil
	r.s.products[p.ID] = row
	return nil
}

func (r *memProductRepo) Update(_ context.Context, p *model.Product) error {
	row := *p
	row.Category = nil
	r.s.products[p.ID] = row
	return nil
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.Category = r.s.categoryRef(p.CategoryID)
	return &p, nil
}

func (r *memProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	r.s.lock(model.KindProduct, id, "UPDATE")
	p, ok := r.s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *memProductRepo) List(_ context.Context, f repository.ListFilter, p *pagination.Params) ([]model.Product, int64, error) {
	var out []model.Product
	for _, row := range r.s.products {
		if row.IsArchived != f.Archived || (f.Search != "" && !containsFold(row.Name, f.Search)) {
			continue
		}
		if f.CategoryID != nil && !sameRef(row.CategoryID, *f.CategoryID) {
			continue
		}
		row.Category = r.s.categoryRef(row.CategoryID)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessArchived(f.Archived, archivedRow{out[i].ArchiveState, out[i].CreatedAt, out[i].ID}, archivedRow{out[j].ArchiveState, out[j].CreatedAt, out[j].ID})
	})
	items, total := paginateSlice(out, p)
	return items, total, nil
}

// ---- stock movements ----

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	r.s.stamp(&m.ID, &m.CreatedAt)
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *memMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for i := len(r.s.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.movements[i].ProductID == productID {
			out = append(out, r.s.movements[i])
		}
	}
	return out, nil
}

// ---- service types ----

type memServiceTypeRepo struct{ s *memStore }

func (r *memServiceTypeRepo) Create(_ context.Context, st *model.ServiceType) error {
	r.s.stamp(&st.ID, &st.CreatedAt)
	row := *st
	row.Category = nil
	r.s.serviceTypes[st.ID] = row
	return nil
}

func (r *memServiceTypeRepo) Update(_ context.Context, st *model.ServiceType) error {
	row := *st
	row.Category = nil
	r.s.serviceTypes[st.ID] = row
	return nil
}

func (r *memServiceTypeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ServiceType, error) {
	st, ok := r.s.serviceTypes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	st.Category = r.s.categoryRef(st.CategoryID)
	return &st, nil
}

func (r *memServiceTypeRepo) List(_ context.Context, f repository.ListFilter, p *pagination.Params) ([]model.ServiceType, int64, error) {
	var out []model.ServiceType
	for _, row := range r.s.serviceTypes {
		if row.IsArchived != f.Archived || (f.Search != "" && !containsFold(row.Name, f.Search)) {
			continue
		}
		if f.CategoryID != nil && !sameRef(row.CategoryID, *f.CategoryID) {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		row.Category = r.s.categoryRef(row.CategoryID)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessArchived(f.Archived, archivedRow{out[i].ArchiveState, out[i].CreatedAt, out[i].ID}, archivedRow{out[j].ArchiveState, out[j].CreatedAt, out[j].ID})
	})
	items, total := paginateSlice(out, p)
	return items, total, nil
}

// ---- groups ----

type memGroupRepo struct{ s *memStore }

func (r *memGroupRepo) Create(_ context.Context, g *model.Group) error {
	r.s.stamp(&g.ID, &g.CreatedAt)
	r.s.groups[g.ID] = *g
	return nil
}

func (r *memGroupRepo) Update(_ context.Context, g *model.Group) error {
	r.s.groups[g.ID] = *g
	return nil
}

func (r *memGroupRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Group, error) {
	g, ok := r.s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &g, nil
}

func (r *memGroupRepo) List(_ context.Context, f repository.ListFilter, p *pagination.Params) ([]model.Group, int64, error) {
	var out []model.Group
	for _, g := range r.s.groups {
		if g.IsArchived != f.Archived || (f.Status != "" && g.Status != f.Status) {
			continue
		}
		if f.Search != "" && !containsFold(g.Name, f.Search) {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessArchived(f.Archived, archivedRow{out[i].ArchiveState, out[i].CreatedAt, out[i].ID}, archivedRow{out[j].ArchiveState, out[j].CreatedAt, out[j].ID})
	})
	items, total := paginateSlice(out, p)
	return items, total, nil
}

// ---- users ----

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.s.stamp(&u.ID, &u.CreatedAt)
	row := *u
	row.Group = nil
	r.s.users[u.ID] = row
	return nil
}

func (r *memUserRepo) Update(_ context.Context, u *model.User) error {
	row := *u
	row.Group = nil
	r.s.users[u.ID] = row
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u.Group = r.s.groupRef(u.GroupID)
	return &u, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	var found *model.User
	for _, u := range r.s.users {
		if u.Username != username {
			continue
		}
		u := u
		switch {
		case found == nil:
			found = &u
		case found.IsArchived && !u.IsArchived:
			found = &u
		case found.IsArchived && u.IsArchived && u.CreatedAt.After(found.CreatedAt):
			found = &u
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	found.Group = r.s.groupRef(found.GroupID)
	return found, nil
}

func (r *memUserRepo) List(_ context.Context, f repository.ListFilter, p *pagination.Params) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.s.users {
		if u.IsArchived != f.Archived || (f.Status != "" && u.Status != f.Status) {
			continue
		}
		if f.Search != "" && !containsFold(u.Name, f.Search) && !containsFold(u.Username, f.Search) {
			continue
		}
		u.Group = r.s.groupRef(u.GroupID)
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessArchived(f.Archived, archivedRow{out[i].ArchiveState, out[i].CreatedAt, out[i].ID}, archivedRow{out[j].ArchiveState, out[j].CreatedAt, out[j].ID})
	})
	items, total := paginateSlice(out, p)
	return items, total, nil
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := r.s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastLogin = &at
	r.s.users[id] = u
	return nil
}

// ---- staff ----

type memStaffRepo struct{ s *memStore }

func (r *memStaffRepo) ListStaffUsers(_ context.Context, p *pagination.Params) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.s.users {
		g := r.s.groupRef(u.GroupID)
		if u.IsArchived || g == nil || !containsFold(g.Name, "staff") {
			continue
		}
		u.Group = g
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	items, total := paginateSlice(out, p)
	return items, total, nil
}

func (r *memStaffRepo) FindByUserIDs(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]model.Staff, error) {
	out := make(map[uuid.UUID]model.Staff, len(userIDs))
	for _, id := range userIDs {
		if st, ok := r.s.staff[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (r *memStaffRepo) Upsert(_ context.Context, st *model.Staff) error {
	if existing, ok := r.s.staff[st.UserID]; ok {
		st.ID, st.CreatedAt = existing.ID, existing.CreatedAt
	}
	r.s.stamp(&st.ID, &st.CreatedAt)
	row := *st
	row.User = nil
	r.s.staff[st.UserID] = row
	return nil
}

// ---- schedules ----

type memScheduleRepo struct{ s *memStore }

func (r *memScheduleRepo) withStaff(sc model.Schedule) model.Schedule {
	if sc.StaffID != nil {
		if u, ok := r.s.users[*sc.StaffID]; ok {
			sc.Staff = &u
		}
	}
	return sc
}

func (r *memScheduleRepo) Create(_ context.Context, sc *model.Schedule) error {
	r.s.stamp(&sc.ID, &sc.CreatedAt)
	row := *sc
	row.Staff = nil
	r.s.schedules[sc.ID] = row
	return nil
}

func (r *memScheduleRepo) Update(_ context.Context, sc *model.Schedule) error {
	row := *sc
	row.Staff = nil
	r.s.schedules[sc.ID] = row
	return nil
}

func (r *memScheduleRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.s.schedules[id]; !ok {
		return false, nil
	}
	delete(r.s.schedules, id)
	return true, nil
}

func (r *memScheduleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Schedule, error) {
	sc, ok := r.s.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	sc = r.withStaff(sc)
	return &sc, nil
}

func (r *memScheduleRepo) List(_ context.Context) ([]model.Schedule, error) {
	out := make([]model.Schedule, 0, len(r.s.schedules))
	for _, sc := range r.s.schedules {
		out = append(out, r.withStaff(sc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---- transactions ----

type memTransactionRepo struct{ s *memStore }

func (r *memTransactionRepo) withRefs(t model.Transaction) model.Transaction {
	if t.ServiceTypeID != nil {
		if st, ok := r.s.serviceTypes[*t.ServiceTypeID]; ok {
			t.ServiceType = &st
		}
	}
	if t.ProductID != nil {
		if p, ok := r.s.products[*t.ProductID]; ok {
			t.Product = &p
		}
	}
	return t
}

func (r *memTransactionRepo) store(t *model.Transaction) {
	row := *t
	row.ServiceType, row.Product = nil, nil
	r.s.txns[t.ID] = row
}

func (r *memTransactionRepo) Create(_ context.Context, t *model.Transaction) error {
	r.s.stamp(&t.ID, &t.CreatedAt)
	r.store(t)
	return nil
}

func (r *memTransactionRepo) Update(_ context.Context, t *model.Transaction) error {
	r.store(t)
	return nil
}

func (r *memTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, ok := r.s.txns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t = r.withRefs(t)
	return &t, nil
}

func (r *memTransactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return r.FindByID(ctx, id)
}

func (r *memTransactionRepo) List(_ context.Context, f repository.ListFilter, p *pagination.Params) ([]model.Transaction, int64, error) {
	var out []model.Transaction
	for _, t := range r.s.txns {
		if t.IsArchived != f.Archived || (f.Status != "" && t.Status != f.Status) {
			continue
		}
		if f.Search != "" && !containsFold(t.CustomerName, f.Search) {
			continue
		}
		out = append(out, r.withRefs(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return lessArchived(f.Archived, archivedRow{out[i].ArchiveState, out[i].CreatedAt, out[i].ID}, archivedRow{out[j].ArchiveState, out[j].CreatedAt, out[j].ID})
	})
	items, total := paginateSlice(out, p)
	return items, total, nil
}

// ---- reports ----

type memReportRepo struct{ s *memStore }

func (r *memReportRepo) StockCounts(_ context.Context) (map[model.StockStatus]int64, error) {
	counts := map[model.StockStatus]int64{}
	for _, p := range r.s.products {
		if !p.IsArchived {
			counts[model.ClassifyStock(p.StockQuantity, p.MinimumStock)]++
		}
	}
	return counts, nil
}

func (r *memReportRepo) ProductsByStockStatus(_ context.Context, status model.StockStatus) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.s.products {
		if !p.IsArchived && model.ClassifyStock(p.StockQuantity, p.MinimumStock) == status {
			p.Category = r.s.categoryRef(p.CategoryID)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StockQuantity != out[j].StockQuantity {
			return out[i].StockQuantity < out[j].StockQuantity
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memReportRepo) TransactionCounts(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, t := range r.s.txns {
		if !t.IsArchived {
			counts[t.Status]++
		}
	}
	return counts, nil
}
