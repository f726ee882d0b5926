package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"qcportal/internal/qc/model"
)

type memoryState struct {
	batches        map[string]model.Batch
	batchNumbers   map[string]string // batch_number -> id
	records        map[string]model.TestRecord
	audit          []model.AuditLogEntry
	users          map[string]model.User
	usernames      map[string]string // username -> id
	emails         map[string]string // email -> id
	specifications map[string]model.Specification
	equipment      map[string]model.Equipment
	equipmentTags  map[string]string // equipment_id -> id
	counters       map[string]int64
}

func newMemoryState() memoryState {
	return memoryState{
		batches:        map[string]model.Batch{},
		batchNumbers:   map[string]string{},
		records:        map[string]model.TestRecord{},
		users:          map[string]model.User{},
		usernames:      map[string]string{},
		emails:         map[string]string{},
		specifications: map[string]model.Specification{},
		equipment:      map[string]model.Equipment{},
		equipmentTags:  map[string]string{},
		counters:       map[string]int64{},
	}
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		batches:        make(map[string]model.Batch, len(s.batches)),
		batchNumbers:   make(map[string]string, len(s.batchNumbers)),
		records:        make(map[string]model.TestRecord, len(s.records)),
		audit:          make([]model.AuditLogEntry, len(s.audit)),
		users:          make(map[string]model.User, len(s.users)),
		usernames:      make(map[string]string, len(s.usernames)),
		emails:         make(map[string]string, len(s.emails)),
		specifications: make(map[string]model.Specification, len(s.specifications)),
		equipment:      make(map[string]model.Equipment, len(s.equipment)),
		equipmentTags:  make(map[string]string, len(s.equipmentTags)),
		counters:       make(map[string]int64, len(s.counters)),
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.batchNumbers {
		c.batchNumbers[k] = v
	}
	for k, v := range s.records {
		c.records[k] = cloneRecord(v)
	}
	// Stored entries are never mutated, so sharing Details maps is safe
	copy(c.audit, s.audit)
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.usernames {
		c.usernames[k] = v
	}
	for k, v := range s.emails {
		c.emails[k] = v
	}
	for k, v := range s.specifications {
		c.specifications[k] = v
	}
	for k, v := range s.equipment {
		c.equipment[k] = v
	}
	for k, v := range s.equipmentTags {
		c.equipmentTags[k] = v
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

func cloneRecord(r model.TestRecord) model.TestRecord {
	if r.Signature != nil {
		sig := *r.Signature
		r.Signature = &sig
	}
	return r
}

func cloneDetails(d map[string]string) map[string]string {
	out := make(map[string]string, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

type memoryTxKey struct{}

// MemoryRepository implements Store in process memory. A unit of work holds the store
// lock for its whole duration and restores a snapshot when it fails, which makes every
// WithTx call serializable.
type MemoryRepository struct {
	mu    sync.RWMutex
	state memoryState
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{state: newMemoryState()}
}

func (r *MemoryRepository) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memoryTxKey{}).(*MemoryRepository)
	return owner == r
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.clone()
	if err := fn(context.WithValue(ctx, memoryTxKey{}, r)); err != nil {
		r.state = snapshot
		return err
	}
	// A unit of work that outlived its deadline must not commit
	if err := ctx.Err(); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

// read runs fn under the read lock unless ctx already owns the store
func (r *MemoryRepository) read(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.inTx(ctx) {
		return fn()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn()
}

// write runs fn under the write lock unless ctx already owns the store
func (r *MemoryRepository) write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.inTx(ctx) {
		return fn()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

func (r *MemoryRepository) EnsureIndexes(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ---- batches ----

func (r *MemoryRepository) EnsureBatch(ctx context.Context, batch *model.Batch) (*model.Batch, bool, error) {
	var (
		stored  model.Batch
		created bool
	)
	err := r.write(ctx, func() error {
		if id, ok := r.state.batchNumbers[batch.BatchNumber]; ok {
			stored = r.state.batches[id]
			return nil
		}
		r.state.batches[batch.ID] = *batch
		r.state.batchNumbers[batch.BatchNumber] = batch.ID
		stored, created = *batch, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

func (r *MemoryRepository) CreateBatch(ctx context.Context, batch *model.Batch) error {
	return r.write(ctx, func() error {
		if _, ok := r.state.batchNumbers[batch.BatchNumber]; ok {
			return ErrDuplicate
		}
		r.state.batches[batch.ID] = *batch
		r.state.batchNumbers[batch.BatchNumber] = batch.ID
		return nil
	})
}

func (r *MemoryRepository) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	var out model.Batch
	err := r.read(ctx, func() error {
		b, ok := r.state.batches[id]
		if !ok {
			return ErrNotFound
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepository) GetBatchByNumber(ctx context.Context, batchNumber string) (*model.Batch, error) {
	var out model.Batch
	err := r.read(ctx, func() error {
		id, ok := r.state.batchNumbers[batchNumber]
		if !ok {
			return ErrNotFound
		}
		out = r.state.batches[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepository) FindBatches(ctx context.Context, filter model.BatchFilter) ([]*model.Batch, error) {
	var out []*model.Batch
	err := r.read(ctx, func() error {
		for _, b := range r.state.batches {
			if !containsFold(b.BatchNumber, filter.BatchNumber) || !containsFold(b.ProductName, filter.ProductName) {
				continue
			}
			b := b
			out = append(out, &b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].BatchNumber > out[j].BatchNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r *MemoryRepository) NextSequence(ctx context.Context, key string) (int64, error) {
	var next int64
	err := r.write(ctx, func() error {
		r.state.counters[key]++
		next = r.state.counters[key]
		return nil
	})
	return next, err
}

// ---- test records ----

func (r *MemoryRepository) CreateTestRecord(ctx context.Context, rec *model.TestRecord) error {
	return r.write(ctx, func() error {
		if _, ok := r.state.records[rec.ID]; ok {
			return ErrDuplicate
		}
		r.state.records[rec.ID] = cloneRecord(*rec)
		return nil
	})
}

func (r *MemoryRepository) GetTestRecord(ctx context.Context, id string) (*model.TestRecord, error) {
	var out model.TestRecord
	err := r.read(ctx, func() error {
		rec, ok := r.state.records[id]
		if !ok {
			return ErrNotFound
		}
		out = cloneRecord(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepository) FindTestRecords(ctx context.Context, filter model.TestRecordFilter) ([]*model.TestRecord, error) {
	var matched []*model.TestRecord
	err := r.read(ctx, func() error {
		for _, rec := range r.state.records {
			if !matchRecord(&rec, filter) {
				continue
			}
			c := cloneRecord(rec)
			matched = append(matched, &c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.Ascending {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if filter.Ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return paginate(matched, filter.Skip, filter.Limit), nil
}

func matchRecord(rec *model.TestRecord, f model.TestRecordFilter) bool {
	if !containsFold(rec.BatchNumber, f.BatchNumber) || !containsFold(rec.ProductName, f.ProductName) {
		return false
	}
	if f.TestType != "" && rec.TestType != f.TestType {
		return false
	}
	if f.Status != "" && rec.PassFailStatus != f.Status {
		return false
	}
	if f.DateFrom != "" && rec.TestDate < f.DateFrom {
		return false
	}
	if f.DateTo != "" && (rec.TestDate == "" || rec.TestDate > f.DateTo) {
		return false
	}
	return true
}

func (r *MemoryRepository) UpdateTestRecord(ctx context.Context, rec *model.TestRecord, expectedVersion int64) error {
	return r.write(ctx, func() error {
		current, ok := r.state.records[rec.ID]
		if !ok {
			return ErrNotFound
		}
		if current.IsSigned() {
			return ErrSigned
		}
		if current.Version != expectedVersion {
			return ErrVersionConflict
		}
		r.state.records[rec.ID] = cloneRecord(*rec)
		return nil
	})
}

func (r *MemoryRepository) SignTestRecord(ctx context.Context, id string, sig *model.Signature) (*model.TestRecord, error) {
	var out model.TestRecord
	err := r.write(ctx, func() error {
		current, ok := r.state.records[id]
		if !ok {
			return ErrNotFound
		}
		if current.IsSigned() {
			return ErrSigned
		}
		s := *sig
		current.Signature = &s
		current.UpdatedAt = sig.SignedAt
		current.Version++
		r.state.records[id] = current
		out = cloneRecord(current)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- audit ----

func (r *MemoryRepository) AppendAudit(ctx context.Context, entry *model.AuditLogEntry) error {
	return r.write(ctx, func() error {
		var (
			seq      int64 = 1
			prevHash string
		)
		if n := len(r.state.audit); n > 0 {
			head := r.state.audit[n-1]
			seq, prevHash = head.Seq+1, head.Hash
		}
		entry.Seal(seq, prevHash)

		stored := *entry
		stored.Details = cloneDetails(entry.Details)
		r.state.audit = append(r.state.audit, stored)
		return nil
	})
}

func (r *MemoryRepository) FindAuditLogs(ctx context.Context, filter model.AuditLogFilter) ([]*model.AuditLogEntry, error) {
	var matched []*model.AuditLogEntry
	err := r.read(ctx, func() error {
		// Walk backwards so equal timestamps come out newest insertion first
		for i := len(r.state.audit) - 1; i >= 0; i-- {
			e := r.state.audit[i]
			if !matchAudit(&e, filter) {
				continue
			}
			e.Details = cloneDetails(e.Details)
			matched = append(matched, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	return paginate(matched, filter.Skip, filter.Limit), nil
}

func matchAudit(e *model.AuditLogEntry, f model.AuditLogFilter) bool {
	if !containsFold(e.Username, f.Username) {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.Until != nil && !e.Timestamp.Before(*f.Until) {
		return false
	}
	return true
}

func (r *MemoryRepository) IterateAudit(ctx context.Context, fn func(*model.AuditLogEntry) error) error {
	var entries []model.AuditLogEntry
	if err := r.read(ctx, func() error {
		entries = make([]model.AuditLogEntry, len(r.state.audit))
		copy(entries, r.state.audit)
		return nil
	}); err != nil {
		return err
	}
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := entries[i]
		e.Details = cloneDetails(e.Details)
		if err := fn(&e); err != nil {
			return err
		}
	}
	return nil
}

// ---- users ----

func (r *MemoryRepository) CreateUser(ctx context.Context, user *model.User) error {
	return r.write(ctx, func() error {
		if _, ok := r.state.usernames[user.Username]; ok {
			return ErrDuplicate
		}
		if user.Email != "" {
			if _, ok := r.state.emails[user.Email]; ok {
				return ErrDuplicate
			}
			r.state.emails[user.Email] = user.ID
		}
		r.state.users[user.ID] = *user
		r.state.usernames[user.Username] = user.ID
		return nil
	})
}

func (r *MemoryRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	var out model.User
	err := r.read(ctx, func() error {
		u, ok := r.state.users[id]
		if !ok {
			return ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var out model.User
	err := r.read(ctx, func() error {
		id, ok := r.state.usernames[username]
		if !ok {
			return ErrNotFound
		}
		out = r.state.users[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- registries ----

func (r *MemoryRepository) CreateSpecification(ctx context.Context, spec *model.Specification) error {
	return r.write(ctx, func() error {
		r.state.specifications[spec.ID] = *spec
		return nil
	})
}

func (r *MemoryRepository) FindSpecifications(ctx context.Context, filter model.SpecificationFilter) ([]*model.Specification, error) {
	var out []*model.Specification
	err := r.read(ctx, func() error {
		for _, s := range r.state.specifications {
			if !containsFold(s.ProductName, filter.ProductName) {
				continue
			}
			if filter.TestType != "" && s.TestType != filter.TestType {
				continue
			}
			s := s
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].TestType < out[j].TestType
	})
	return out, err
}

func (r *MemoryRepository) CreateEquipment(ctx context.Context, eq *model.Equipment) error {
	return r.write(ctx, func() error {
		if _, ok := r.state.equipmentTags[eq.EquipmentID]; ok {
			return ErrDuplicate
		}
		r.state.equipment[eq.ID] = *eq
		r.state.equipmentTags[eq.EquipmentID] = eq.ID
		return nil
	})
}

func (r *MemoryRepository) FindEquipment(ctx context.Context) ([]*model.Equipment, error) {
	var out []*model.Equipment
	err := r.read(ctx, func() error {
		for _, e := range r.state.equipment {
			e := e
			out = append(out, &e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EquipmentID < out[j].EquipmentID })
	return out, err
}

// ---- helpers ----

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip > 0 {
		if skip >= len(items) {
			return []T{}
		}
		items = items[skip:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
