package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"medication-sku-service/internal/events"
	"medication-sku-service/internal/model"
	"medication-sku-service/internal/repository"
	"medication-sku-service/internal/repository/memrepo"
	"medication-sku-service/internal/service"
)

func newSKUService(t *testing.T) (service.MedicationSKUService, *memrepo.Store) {
	t.Helper()
	store := memrepo.NewStore()
	return service.NewMedicationSKUService(store.MedicationSKUs(), events.NoopPublisher{}), store
}

func ibuprofen() service.MedicationSKUInput {
	return service.MedicationSKUInput{
		MedicationName: "Ibuprofen",
		Presentation:   "Tablet",
		Dose:           50,
		Unit:           "mg",
	}
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}

func TestMedicationSKUService_CreateSetsOwner(t *testing.T) {
	svc, _ := newSKUService(t)
	owner := uuid.New()

	sku, err := svc.Create(context.Background(), owner, ibuprofen())
	require.NoError(t, err)
	require.Equal(t, owner, sku.UserID)
	require.Equal(t, "Ibuprofen", sku.MedicationName)
	require.Equal(t, "Tablet", sku.Presentation)
	require.Equal(t, 50, sku.Dose)
	require.Equal(t, "mg", sku.Unit)
	require.Empty(t, sku.Tags)
}

func TestMedicationSKUService_DuplicateNameIsFieldError(t *testing.T) {
	svc, _ := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.Create(ctx, owner, ibuprofen())
	require.NoError(t, err)

	dup := ibuprofen()
	dup.Presentation = "Capsule"
	dup.Dose = 100
	_, err = svc.Create(ctx, owner, dup)

	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "medication_name")

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMedicationSKUService_DuplicateTupleIsFieldError(t *testing.T) {
	svc, _ := newSKUService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), ibuprofen())
	require.NoError(t, err)

	_, err = svc.Create(ctx, uuid.New(), ibuprofen())
	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "medication_name")
}

func TestMedicationSKUService_TagResolutionIsIdempotent(t *testing.T) {
	svc, store := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()

	first := ibuprofen()
	first.Tags = service.TagSpec{Set: true, Names: []string{"Analgesic", "Analgesic"}}
	a, err := svc.Create(ctx, owner, first)
	require.NoError(t, err)

	second := service.MedicationSKUInput{
		MedicationName: "Paracetamol",
		Presentation:   "Tablet",
		Dose:           500,
		Unit:           "mg",
		Tags:           service.TagSpec{Set: true, Names: []string{"Analgesic"}},
	}
	b, err := svc.Create(ctx, owner, second)
	require.NoError(t, err)

	require.Len(t, a.Tags, 1)
	require.Len(t, b.Tags, 1)
	require.Equal(t, a.Tags[0].ID, b.Tags[0].ID)

	tags, err := store.Tags().List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
}

func TestMedicationSKUService_TagsAreScopedPerOwner(t *testing.T) {
	svc, store := newSKUService(t)
	ctx := context.Background()

	first := ibuprofen()
	first.Tags = service.TagSpec{Set: true, Names: []string{"Analgesic"}}
	a, err := svc.Create(ctx, uuid.New(), first)
	require.NoError(t, err)

	second := service.MedicationSKUInput{MedicationName: "Aspirin", Presentation: "Tablet", Dose: 100, Unit: "mg",
		Tags: service.TagSpec{Set: true, Names: []string{"Analgesic"}}}
	b, err := svc.Create(ctx, uuid.New(), second)
	require.NoError(t, err)

	require.NotEqual(t, a.Tags[0].ID, b.Tags[0].ID)
	tags, err := store.Tags().List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
}

func TestMedicationSKUService_PartialUpdateTagSemantics(t *testing.T) {
	svc, _ := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()

	in := ibuprofen()
	in.Tags = service.TagSpec{Set: true, Names: []string{"Vaccine", "Sedative"}}
	sku, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)

	presentation := "Capsule"
	updated, err := svc.Update(ctx, owner, sku.ID, service.MedicationSKUPatch{Presentation: &presentation})
	require.NoError(t, err)
	require.Equal(t, "Capsule", updated.Presentation)
	require.Equal(t, "Ibuprofen", updated.MedicationName)
	require.ElementsMatch(t, []string{"Vaccine", "Sedative"}, tagNames(updated.Tags))

	updated, err = svc.Update(ctx, owner, sku.ID, service.MedicationSKUPatch{
		Tags: service.TagSpec{Set: true, Names: []string{"Sleep Aid"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Sleep Aid"}, tagNames(updated.Tags))

	updated, err = svc.Update(ctx, owner, sku.ID, service.MedicationSKUPatch{
		Tags: service.TagSpec{Set: true},
	})
	require.NoError(t, err)
	require.Empty(t, updated.Tags)

	stored, err := svc.Get(ctx, sku.ID)
	require.NoError(t, err)
	require.Empty(t, stored.Tags)
}

func TestMedicationSKUService_FullUpdateKeepsOwner(t *testing.T) {
	svc, _ := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()

	sku, err := svc.Create(ctx, owner, ibuprofen())
	require.NoError(t, err)

	in := service.MedicationSKUInput{MedicationName: "New name", Presentation: "Syrup", Dose: 100, Unit: "ml"}
	updated, err := svc.Update(ctx, owner, sku.ID, in.AsPatch())
	require.NoError(t, err)
	require.Equal(t, owner, updated.UserID)
	require.Equal(t, "New name", updated.MedicationName)
	require.Equal(t, "Syrup", updated.Presentation)
	require.Equal(t, 100, updated.Dose)
	require.Equal(t, "ml", updated.Unit)
}

func TestMedicationSKUService_UpdateToTakenNameIsFieldError(t *testing.T) {
	svc, _ := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.Create(ctx, owner, ibuprofen())
	require.NoError(t, err)
	other, err := svc.Create(ctx, owner, service.MedicationSKUInput{MedicationName: "Aspirin", Presentation: "Tablet", Dose: 1, Unit: "g"})
	require.NoError(t, err)

	name := "Ibuprofen"
	_, err = svc.Update(ctx, owner, other.ID, service.MedicationSKUPatch{MedicationName: &name})
	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "medication_name")
}

func TestMedicationSKUService_OwnershipGatesWrites(t *testing.T) {
	svc, _ := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()

	sku, err := svc.Create(ctx, owner, ibuprofen())
	require.NoError(t, err)

	presentation := "X"
	_, err = svc.Update(ctx, intruder, sku.ID, service.MedicationSKUPatch{Presentation: &presentation})
	require.ErrorIs(t, err, service.ErrForbidden)

	err = svc.Delete(ctx, intruder, sku.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	stored, err := svc.Get(ctx, sku.ID)
	require.NoError(t, err)
	require.Equal(t, "Tablet", stored.Presentation)

	require.NoError(t, svc.Delete(ctx, owner, sku.ID))
	_, err = svc.Get(ctx, sku.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestMedicationSKUService_DeleteKeepsTagRows(t *testing.T) {
	svc, store := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()

	in := ibuprofen()
	in.Tags = service.TagSpec{Set: true, Names: []string{"Analgesic"}}
	sku, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, sku.ID))

	tags, err := store.Tags().List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
}

func TestMedicationSKUService_BulkCreateIsAtomic(t *testing.T) {
	svc, _ := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.Create(ctx, owner, ibuprofen())
	require.NoError(t, err)

	batch := []service.MedicationSKUInput{
		{MedicationName: "Unique Aspirin", Presentation: "Tablet", Dose: 50, Unit: "mg"},
		{MedicationName: "Ibuprofen", Presentation: "Capsule", Dose: 100, Unit: "mg"},
	}
	_, err = svc.BulkCreate(ctx, owner, batch)

	var bulkErr *service.BulkValidationError
	require.ErrorAs(t, err, &bulkErr)
	require.Len(t, bulkErr.Items, 2)
	require.Empty(t, bulkErr.Items[0])
	require.Contains(t, bulkErr.Items[1], "medication_name")

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMedicationSKUService_BulkCreateAttachesTags(t *testing.T) {
	svc, _ := newSKUService(t)
	ctx := context.Background()
	owner := uuid.New()

	batch := []service.MedicationSKUInput{
		{MedicationName: "Unique Aspirin", Presentation: "Tablet", Dose: 50, Unit: "mg",
			Tags: service.TagSpec{Set: true, Names: []string{"Analgesic"}}},
		{MedicationName: "Unique Amoxicillin", Presentation: "Capsule", Dose: 500, Unit: "mg",
			Tags: service.TagSpec{Set: true, Names: []string{"Antibiotic", "Analgesic"}}},
	}
	created, err := svc.BulkCreate(ctx, owner, batch)
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Equal(t, owner, created[0].UserID)
	require.Equal(t, owner, created[1].UserID)
	require.Equal(t, created[0].Tags[0].ID, created[1].Tags[0].ID)
	require.ElementsMatch(t, []string{"Analgesic", "Antibiotic"}, tagNames(created[1].Tags))
}

type slowPublisher struct {
	mu   sync.Mutex
	sent []string
}

func (p *slowPublisher) record(subject string) error {
	time.Sleep(20 * time.Millisecond)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, subject)
	return nil
}

func (p *slowPublisher) PublishMedicationSKUCreated(model.MedicationSKU) error {
	return p.record(events.SubjectMedicationSKUCreated)
}

func (p *slowPublisher) PublishMedicationSKUUpdated(model.MedicationSKU) error {
	return p.record(events.SubjectMedicationSKUUpdated)
}

func (p *slowPublisher) PublishMedicationSKUDeleted(uuid.UUID, uuid.UUID) error {
	return p.record(events.SubjectMedicationSKUDeleted)
}

func TestMedicationSKUService_DrainWaitsForEvents(t *testing.T) {
	publisher := &slowPublisher{}
	svc := service.NewMedicationSKUService(memrepo.NewStore().MedicationSKUs(), publisher)
	ctx := context.Background()
	owner := uuid.New()

	sku, err := svc.Create(ctx, owner, ibuprofen())
	require.NoError(t, err)
	dose := 100
	_, err = svc.Update(ctx, owner, sku.ID, service.MedicationSKUPatch{Dose: &dose})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, owner, sku.ID))

	svc.Drain()

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	require.ElementsMatch(t, []string{
		events.SubjectMedicationSKUCreated,
		events.SubjectMedicationSKUUpdated,
		events.SubjectMedicationSKUDeleted,
	}, publisher.sent)
}

func TestMedicationSKUService_DoseOutOfRangeIsFieldError(t *testing.T) {
	svc, _ := newSKUService(t)

	in := ibuprofen()
	in.Dose = repository.MaxInteger + 1
	_, err := svc.Create(context.Background(), uuid.New(), in)

	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, []string{"Ensure this value is less than or equal to 2147483647."}, vErr.Fields["dose"])
}
