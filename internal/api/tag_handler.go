package api

import (
	"github.com/gofiber/fiber/v2"

	"medication-sku-service/internal/service"
)

type TagHandler struct {
	tagService service.TagService
	payloads   *PayloadValidator
}

func NewTagHandler(tagService service.TagService, payloads *PayloadValidator) *TagHandler {
	return &TagHandler{
		tagService: tagService,
		payloads:   payloads,
	}
}

func (h *TagHandler) List(c *fiber.Ctx) error {
	tags, err := h.tagService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(renderTags(tags))
}

func (h *TagHandler) Create(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var payload TagWritePayload
	if fields := h.payloads.Decode(c.Body(), &payload); fields != nil {
		return validationFailed(c, fields)
	}

	tag, err := h.tagService.Create(c.UserContext(), user.ID, *payload.Name)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(renderTag(*tag))
}

func (h *TagHandler) Retrieve(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}

	tag, err := h.tagService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(renderTag(*tag))
}

func (h *TagHandler) Update(c *fiber.Ctx) error {
	return h.update(c, &TagWritePayload{}, func(p interface{}) *string { return p.(*TagWritePayload).Name })
}

func (h *TagHandler) PartialUpdate(c *fiber.Ctx) error {
	return h.update(c, &TagPatchPayload{}, func(p interface{}) *string { return p.(*TagPatchPayload).Name })
}

func (h *TagHandler) update(c *fiber.Ctx, payload interface{}, name func(interface{}) *string) error {
	user, err := CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}

	if _, err := h.tagService.GetForWrite(c.UserContext(), user.ID, id); err != nil {
		return respondError(c, err)
	}

	if fields := h.payloads.Decode(c.Body(), payload); fields != nil {
		return validationFailed(c, fields)
	}

	tag, err := h.tagService.Update(c.UserContext(), user.ID, id, name(payload))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(renderTag(*tag))
}

func (h *TagHandler) Delete(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.tagService.Delete(c.UserContext(), user.ID, id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
