package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"medication-sku-service/internal/service"
)

type MedicationSKUHandler struct {
	skuService service.MedicationSKUService
	payloads   *PayloadValidator
}

func NewMedicationSKUHandler(skuService service.MedicationSKUService, payloads *PayloadValidator) *MedicationSKUHandler {
	return &MedicationSKUHandler{
		skuService: skuService,
		payloads:   payloads,
	}
}

func (h *MedicationSKUHandler) List(c *fiber.Ctx) error {
	skus, err := h.skuService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	response := make([]MedicationSKUSummary, 0, len(skus))
	for _, sku := range skus {
		response = append(response, renderSummary(sku))
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *MedicationSKUHandler) Create(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var payload MedicationSKUPayload
	if fields := h.payloads.Decode(c.Body(), &payload); fields != nil {
		return validationFailed(c, fields)
	}

	sku, err := h.skuService.Create(c.UserContext(), user.ID, payload.Input())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(renderDetail(*sku))
}

// BulkCreate accepts a JSON list and stores either every element or none.
func (h *MedicationSKUHandler) BulkCreate(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	items, perItem, fields := h.payloads.DecodeList(c.Body(), func() interface{} { return &MedicationSKUPayload{} })
	if fields != nil {
		return validationFailed(c, fields)
	}
	if perItem != nil {
		return c.Status(fiber.StatusBadRequest).JSON(perItem)
	}

	inputs := make([]service.MedicationSKUInput, len(items))
	for i, item := range items {
		inputs[i] = item.(*MedicationSKUPayload).Input()
	}

	created, err := h.skuService.BulkCreate(c.UserContext(), user.ID, inputs)
	if err != nil {
		return respondError(c, err)
	}

	response := make([]MedicationSKUDetail, 0, len(created))
	for _, sku := range created {
		response = append(response, renderDetail(sku))
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *MedicationSKUHandler) Retrieve(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}

	sku, err := h.skuService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(renderDetail(*sku))
}

func (h *MedicationSKUHandler) Update(c *fiber.Ctx) error {
	callerID, id, err := h.writeTarget(c)
	if err != nil {
		return respondError(c, err)
	}

	var payload MedicationSKUPayload
	if fields := h.payloads.Decode(c.Body(), &payload); fields != nil {
		return validationFailed(c, fields)
	}

	sku, err := h.skuService.Update(c.UserContext(), callerID, id, payload.Input().AsPatch())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(renderDetail(*sku))
}

func (h *MedicationSKUHandler) PartialUpdate(c *fiber.Ctx) error {
	callerID, id, err := h.writeTarget(c)
	if err != nil {
		return respondError(c, err)
	}

	var payload MedicationSKUPatchPayload
	if fields := h.payloads.Decode(c.Body(), &payload); fields != nil {
		return validationFailed(c, fields)
	}

	sku, err := h.skuService.Update(c.UserContext(), callerID, id, payload.Patch())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(renderDetail(*sku))
}

func (h *MedicationSKUHandler) Delete(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.skuService.Delete(c.UserContext(), user.ID, id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// writeTarget resolves the caller and checks the addressed row exists and
// belongs to them before the body is looked at.
func (h *MedicationSKUHandler) writeTarget(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	user, err := CurrentUser(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, errUnauthenticated
	}

	id, ok := pathID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, service.ErrNotFound
	}

	if _, err := h.skuService.GetForWrite(c.UserContext(), user.ID, id); err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return user.ID, id, nil
}
