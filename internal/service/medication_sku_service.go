package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"medication-sku-service/internal/events"
	"medication-sku-service/internal/model"
	"medication-sku-service/internal/repository"
)

const (
	msgMedicationNameExists = "medication sku with this medication name already exists."
	msgMedicationSKUExists  = "medication sku with this medication name, presentation, dose and unit already exists."
	msgDoseTooLarge         = "Ensure this value is less than or equal to 2147483647."
)

// TagSpec distinguishes an absent tags key (Set=false) from an explicit,
// possibly empty, list.
type TagSpec struct {
	Set   bool
	Names []string
}

type MedicationSKUInput struct {
	MedicationName string
	Presentation   string
	Dose           int
	Unit           string
	Tags           TagSpec
}

// MedicationSKUPatch changes only the non-nil fields.
type MedicationSKUPatch struct {
	MedicationName *string
	Presentation   *string
	Dose           *int
	Unit           *string
	Tags           TagSpec
}

// AsPatch turns a full input into a patch touching every scalar field.
func (in MedicationSKUInput) AsPatch() MedicationSKUPatch {
	return MedicationSKUPatch{
		MedicationName: &in.MedicationName,
		Presentation:   &in.Presentation,
		Dose:           &in.Dose,
		Unit:           &in.Unit,
		Tags:           in.Tags,
	}
}

type MedicationSKUService interface {
	List(ctx context.Context) ([]model.MedicationSKU, error)
	Get(ctx context.Context, id uuid.UUID) (*model.MedicationSKU, error)
	GetForWrite(ctx context.Context, callerID, id uuid.UUID) (*model.MedicationSKU, error)
	Create(ctx context.Context, ownerID uuid.UUID, in MedicationSKUInput) (*model.MedicationSKU, error)
	BulkCreate(ctx context.Context, ownerID uuid.UUID, in []MedicationSKUInput) ([]model.MedicationSKU, error)
	Update(ctx context.Context, callerID, id uuid.UUID, patch MedicationSKUPatch) (*model.MedicationSKU, error)
	Delete(ctx context.Context, callerID, id uuid.UUID) error
	// Drain blocks until every queued event has been handed to the publisher.
	Drain()
}

type medicationSKUService struct {
	skuRepo   repository.MedicationSKURepository
	publisher events.EventPublisher
	pending   sync.WaitGroup
}

func NewMedicationSKUService(skuRepo repository.MedicationSKURepository, publisher events.EventPublisher) MedicationSKUService {
	return &medicationSKUService{skuRepo: skuRepo, publisher: publisher}
}

func (s *medicationSKUService) List(ctx context.Context) ([]model.MedicationSKU, error) {
	return s.skuRepo.List(ctx)
}

func (s *medicationSKUService) Get(ctx context.Context, id uuid.UUID) (*model.MedicationSKU, error) {
	sku, err := s.skuRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sku, nil
}

func (s *medicationSKUService) GetForWrite(ctx context.Context, callerID, id uuid.UUID) (*model.MedicationSKU, error) {
	sku, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ActionWrite, callerID, sku.UserID); err != nil {
		return nil, err
	}
	return sku, nil
}

func (s *medicationSKUService) Create(ctx context.Context, ownerID uuid.UUID, in MedicationSKUInput) (*model.MedicationSKU, error) {
	sku := &model.MedicationSKU{
		UserID:         ownerID,
		MedicationName: in.MedicationName,
		Presentation:   in.Presentation,
		Dose:           in.Dose,
		Unit:           in.Unit,
	}

	created, err := s.skuRepo.Create(ctx, sku, in.Tags.Names)
	if err != nil {
		return nil, conflictToValidation(err)
	}

	snapshot := *created
	s.publish(func() error { return s.publisher.PublishMedicationSKUCreated(snapshot) })

	return created, nil
}

func (s *medicationSKUService) BulkCreate(ctx context.Context, ownerID uuid.UUID, in []MedicationSKUInput) ([]model.MedicationSKU, error) {
	items := make([]repository.NewMedicationSKU, len(in))
	for i, item := range in {
		items[i] = repository.NewMedicationSKU{
			SKU: &model.MedicationSKU{
				UserID:         ownerID,
				MedicationName: item.MedicationName,
				Presentation:   item.Presentation,
				Dose:           item.Dose,
				Unit:           item.Unit,
			},
			TagNames: item.Tags.Names,
		}
	}

	created, err := s.skuRepo.BulkCreate(ctx, items)
	if err != nil {
		var batchErr *repository.BatchError
		if errors.As(err, &batchErr) {
			var vErr *ValidationError
			if errors.As(conflictToValidation(batchErr.Err), &vErr) {
				bulkErr := &BulkValidationError{Items: make([]map[string][]string, len(in))}
				for i := range bulkErr.Items {
					bulkErr.Items[i] = map[string][]string{}
				}
				bulkErr.Items[batchErr.Index] = vErr.Fields
				return nil, bulkErr
			}
		}
		return nil, err
	}

	s.publish(func() error {
		for _, sku := range created {
			if err := s.publisher.PublishMedicationSKUCreated(sku); err != nil {
				return err
			}
		}
		return nil
	})

	return created, nil
}

func (s *medicationSKUService) Update(ctx context.Context, callerID, id uuid.UUID, patch MedicationSKUPatch) (*model.MedicationSKU, error) {
	sku, err := s.GetForWrite(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if patch.MedicationName != nil {
		sku.MedicationName = *patch.MedicationName
	}
	if patch.Presentation != nil {
		sku.Presentation = *patch.Presentation
	}
	if patch.Dose != nil {
		sku.Dose = *patch.Dose
	}
	if patch.Unit != nil {
		sku.Unit = *patch.Unit
	}

	updated, err := s.skuRepo.Update(ctx, sku, repository.TagUpdate{
		Replace: patch.Tags.Set,
		Names:   patch.Tags.Names,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, conflictToValidation(err)
	}

	snapshot := *updated
	s.publish(func() error { return s.publisher.PublishMedicationSKUUpdated(snapshot) })

	return updated, nil
}

func (s *medicationSKUService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	sku, err := s.GetForWrite(ctx, callerID, id)
	if err != nil {
		return err
	}

	if err := s.skuRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.publish(func() error { return s.publisher.PublishMedicationSKUDeleted(sku.ID, sku.UserID) })

	return nil
}

func (s *medicationSKUService) publish(fn func() error) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := fn(); err != nil {
			slog.Warn("Failed to publish medication sku event", slog.String("error", err.Error()))
		}
	}()
}

func (s *medicationSKUService) Drain() {
	s.pending.Wait()
}

// conflictToValidation re-expresses storage constraint violations with the
// same field error shape as payload validation.
func conflictToValidation(err error) error {
	if errors.Is(err, repository.ErrOutOfRange) {
		return NewFieldError("dose", msgDoseTooLarge)
	}

	var uniqueErr *repository.UniqueViolationError
	if !errors.As(err, &uniqueErr) {
		return err
	}

	switch uniqueErr.Constraint {
	case repository.ConstraintMedicationSKU:
		return NewFieldError("medication_name", msgMedicationSKUExists)
	default:
		return NewFieldError("medication_name", msgMedicationNameExists)
	}
}
