package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"medication-sku-service/internal/model"
	"medication-sku-service/internal/repository"
)

const msgTagNameExists = "tag with this name already exists."

type TagService interface {
	List(ctx context.Context) ([]model.Tag, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Tag, error)
	GetForWrite(ctx context.Context, callerID, id uuid.UUID) (*model.Tag, error)
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*model.Tag, error)
	Update(ctx context.Context, callerID, id uuid.UUID, name *string) (*model.Tag, error)
	Delete(ctx context.Context, callerID, id uuid.UUID) error
}

type tagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

func (s *tagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.tagRepo.List(ctx)
}

func (s *tagService) Get(ctx context.Context, id uuid.UUID) (*model.Tag, error) {
	tag, err := s.tagRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tag, nil
}

func (s *tagService) GetForWrite(ctx context.Context, callerID, id uuid.UUID) (*model.Tag, error) {
	tag, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ActionWrite, callerID, tag.UserID); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *tagService) Create(ctx context.Context, ownerID uuid.UUID, name string) (*model.Tag, error) {
	tag, err := s.tagRepo.Create(ctx, &model.Tag{UserID: ownerID, Name: name})
	if err != nil {
		return nil, tagConflictToValidation(err)
	}
	return tag, nil
}

func (s *tagService) Update(ctx context.Context, callerID, id uuid.UUID, name *string) (*model.Tag, error) {
	tag, err := s.GetForWrite(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if name == nil || *name == tag.Name {
		return tag, nil
	}

	tag.Name = *name
	updated, err := s.tagRepo.Update(ctx, tag)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, tagConflictToValidation(err)
	}

	return updated, nil
}

func (s *tagService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.GetForWrite(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.tagRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

func tagConflictToValidation(err error) error {
	var uniqueErr *repository.UniqueViolationError
	if errors.As(err, &uniqueErr) {
		return NewFieldError("name", msgTagNameExists)
	}
	return err
}
