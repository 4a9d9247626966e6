// Package memrepo is an in-memory store implementing the medication SKU and
// tag repositories with the same uniqueness and atomicity rules as the
// Postgres schema. It backs the service and HTTP tests.
package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"medication-sku-service/internal/model"
	"medication-sku-service/internal/repository"
)

type skuKey struct {
	name         string
	presentation string
	dose         int
	unit         string
}

type tagKey struct {
	userID uuid.UUID
	name   string
}

type state struct {
	skus  map[uuid.UUID]model.MedicationSKU
	order []uuid.UUID
	tags  map[uuid.UUID]model.Tag
	links map[uuid.UUID]map[uuid.UUID]struct{}
}

func (s *state) clone() *state {
	c := &state{
		skus:  make(map[uuid.UUID]model.MedicationSKU, len(s.skus)),
		order: append([]uuid.UUID(nil), s.order...),
		tags:  make(map[uuid.UUID]model.Tag, len(s.tags)),
		links: make(map[uuid.UUID]map[uuid.UUID]struct{}, len(s.links)),
	}
	for k, v := range s.skus {
		c.skus[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.links {
		set := make(map[uuid.UUID]struct{}, len(v))
		for id := range v {
			set[id] = struct{}{}
		}
		c.links[k] = set
	}
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: &state{
		skus:  map[uuid.UUID]model.MedicationSKU{},
		tags:  map[uuid.UUID]model.Tag{},
		links: map[uuid.UUID]map[uuid.UUID]struct{}{},
	}}
}

func (s *Store) MedicationSKUs() repository.MedicationSKURepository {
	return &skuRepository{store: s}
}

func (s *Store) Tags() repository.TagRepository {
	return &tagRepository{store: s}
}

// atomically runs fn against a copy of the state and keeps the copy only
// when fn succeeds.
func (s *Store) atomically(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(working); err != nil {
		return err
	}
	s.st = working
	return nil
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (st *state) checkSKU(sku model.MedicationSKU) error {
	if sku.Dose > repository.MaxInteger {
		return repository.ErrOutOfRange
	}
	key := skuKey{sku.MedicationName, sku.Presentation, sku.Dose, sku.Unit}
	for id, other := range st.skus {
		if id == sku.ID {
			continue
		}
		if other.MedicationName == sku.MedicationName {
			return &repository.UniqueViolationError{Constraint: repository.ConstraintMedicationName}
		}
		if (skuKey{other.MedicationName, other.Presentation, other.Dose, other.Unit}) == key {
			return &repository.UniqueViolationError{Constraint: repository.ConstraintMedicationSKU}
		}
	}
	return nil
}

func (st *state) checkTag(tag model.Tag) error {
	key := tagKey{tag.UserID, tag.Name}
	for id, other := range st.tags {
		if id != tag.ID && (tagKey{other.UserID, other.Name}) == key {
			return &repository.UniqueViolationError{Constraint: repository.ConstraintTagName}
		}
	}
	return nil
}

func (st *state) getOrCreateTag(userID uuid.UUID, name string) model.Tag {
	for _, tag := range st.tags {
		if tag.UserID == userID && tag.Name == name {
			return tag
		}
	}
	tag := model.Tag{ID: uuid.New(), UserID: userID, Name: name, CreatedAt: time.Now()}
	st.tags[tag.ID] = tag
	return tag
}

func (st *state) attach(skuID, userID uuid.UUID, names []string) {
	set := map[uuid.UUID]struct{}{}
	for _, name := range repository.UniqueNames(names) {
		tag := st.getOrCreateTag(userID, name)
		set[tag.ID] = struct{}{}
	}
	st.links[skuID] = set
}

func (st *state) tagsFor(skuID uuid.UUID) []model.Tag {
	tags := []model.Tag{}
	for id := range st.links[skuID] {
		tags = append(tags, st.tags[id])
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

func (st *state) insertSKU(sku *model.MedicationSKU) error {
	if sku.ID == uuid.Nil {
		sku.ID = uuid.New()
	}
	if err := st.checkSKU(*sku); err != nil {
		return err
	}
	now := time.Now()
	sku.CreatedAt, sku.UpdatedAt = now, now
	stored := *sku
	stored.Tags = nil
	st.skus[sku.ID] = stored
	st.order = append(st.order, sku.ID)
	return nil
}

type skuRepository struct {
	store *Store
}

func (r *skuRepository) List(ctx context.Context) ([]model.MedicationSKU, error) {
	skus := []model.MedicationSKU{}
	err := r.store.read(func(st *state) error {
		for i := len(st.order) - 1; i >= 0; i-- {
			sku, ok := st.skus[st.order[i]]
			if !ok {
				continue
			}
			sku.Tags = st.tagsFor(sku.ID)
			skus = append(skus, sku)
		}
		return nil
	})
	return skus, err
}

func (r *skuRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MedicationSKU, error) {
	var found *model.MedicationSKU
	err := r.store.read(func(st *state) error {
		sku, ok := st.skus[id]
		if !ok {
			return repository.ErrNotFound
		}
		sku.Tags = st.tagsFor(id)
		found = &sku
		return nil
	})
	return found, err
}

func (r *skuRepository) Create(ctx context.Context, sku *model.MedicationSKU, tagNames []string) (*model.MedicationSKU, error) {
	err := r.store.atomically(func(st *state) error {
		if err := st.insertSKU(sku); err != nil {
			return err
		}
		st.attach(sku.ID, sku.UserID, tagNames)
		sku.Tags = st.tagsFor(sku.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sku, nil
}

func (r *skuRepository) BulkCreate(ctx context.Context, items []repository.NewMedicationSKU) ([]model.MedicationSKU, error) {
	created := make([]model.MedicationSKU, 0, len(items))
	err := r.store.atomically(func(st *state) error {
		for i, item := range items {
			if err := st.insertSKU(item.SKU); err != nil {
				return &repository.BatchError{Index: i, Err: err}
			}
		}
		for _, item := range items {
			st.attach(item.SKU.ID, item.SKU.UserID, item.TagNames)
			item.SKU.Tags = st.tagsFor(item.SKU.ID)
			created = append(created, *item.SKU)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *skuRepository) Update(ctx context.Context, sku *model.MedicationSKU, tags repository.TagUpdate) (*model.MedicationSKU, error) {
	err := r.store.atomically(func(st *state) error {
		current, ok := st.skus[sku.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if err := st.checkSKU(*sku); err != nil {
			return err
		}

		current.MedicationName = sku.MedicationName
		current.Presentation = sku.Presentation
		current.Dose = sku.Dose
		current.Unit = sku.Unit
		current.UpdatedAt = time.Now()
		st.skus[sku.ID] = current

		if tags.Replace {
			st.attach(sku.ID, current.UserID, tags.Names)
		}
		*sku = current
		sku.Tags = st.tagsFor(sku.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sku, nil
}

func (r *skuRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.atomically(func(st *state) error {
		if _, ok := st.skus[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.skus, id)
		delete(st.links, id)
		for i, other := range st.order {
			if other == id {
				st.order = append(st.order[:i], st.order[i+1:]...)
				break
			}
		}
		return nil
	})
}

type tagRepository struct {
	store *Store
}

func (r *tagRepository) List(ctx context.Context) ([]model.Tag, error) {
	tags := []model.Tag{}
	err := r.store.read(func(st *state) error {
		for _, tag := range st.tags {
			tags = append(tags, tag)
		}
		return nil
	})
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name > tags[j].Name })
	return tags, err
}

func (r *tagRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tag, error) {
	var found *model.Tag
	err := r.store.read(func(st *state) error {
		tag, ok := st.tags[id]
		if !ok {
			return repository.ErrNotFound
		}
		found = &tag
		return nil
	})
	return found, err
}

func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	err := r.store.atomically(func(st *state) error {
		tag.ID = uuid.New()
		if err := st.checkTag(*tag); err != nil {
			return err
		}
		tag.CreatedAt = time.Now()
		st.tags[tag.ID] = *tag
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (r *tagRepository) Update(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	err := r.store.atomically(func(st *state) error {
		current, ok := st.tags[tag.ID]
		if !ok {
			return repository.ErrNotFound
		}
		current.Name = tag.Name
		if err := st.checkTag(current); err != nil {
			return err
		}
		st.tags[tag.ID] = current
		*tag = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (r *tagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.atomically(func(st *state) error {
		if _, ok := st.tags[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.tags, id)
		for _, set := range st.links {
			delete(set, id)
		}
		return nil
	})
}

func (r *tagRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, name string) (*model.Tag, error) {
	var tag model.Tag
	err := r.store.atomically(func(st *state) error {
		tag = st.getOrCreateTag(userID, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}
