package api

import (
	"github.com/google/uuid"

	"medication-sku-service/internal/model"
)

type TagResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// MedicationSKUSummary is the list representation.
type MedicationSKUSummary struct {
	ID             uuid.UUID     `json:"id"`
	MedicationName string        `json:"medication_name"`
	Presentation   string        `json:"presentation"`
	Dose           int           `json:"dose"`
	Unit           string        `json:"unit"`
	Tags           []TagResponse `json:"tags"`
}

// MedicationSKUDetail is the single record representation. It carries the
// same fields as the summary for now.
type MedicationSKUDetail struct {
	ID             uuid.UUID     `json:"id"`
	MedicationName string        `json:"medication_name"`
	Presentation   string        `json:"presentation"`
	Dose           int           `json:"dose"`
	Unit           string        `json:"unit"`
	Tags           []TagResponse `json:"tags"`
}

func renderTag(tag model.Tag) TagResponse {
	return TagResponse{ID: tag.ID, Name: tag.Name}
}

func renderTags(tags []model.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, renderTag(tag))
	}
	return out
}

func renderSummary(sku model.MedicationSKU) MedicationSKUSummary {
	return MedicationSKUSummary{
		ID:             sku.ID,
		MedicationName: sku.MedicationName,
		Presentation:   sku.Presentation,
		Dose:           sku.Dose,
		Unit:           sku.Unit,
		Tags:           renderTags(sku.Tags),
	}
}

func renderDetail(sku model.MedicationSKU) MedicationSKUDetail {
	return MedicationSKUDetail(renderSummary(sku))
}
