package detector

import (
	"testing"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/stretchr/testify/assert"
)

func TestCollectFields_MapsKnownClasses(t *testing.T) {
	dets := []domain.Detection{
		{Label: "name", Confidence: 0.9, Box: domain.Rect{X1: 1, Y1: 2, X2: 3, Y2: 4}},
		{Label: "dl_number", Confidence: 0.8, Box: domain.Rect{X1: 5, Y1: 6, X2: 7, Y2: 8}},
		{Label: "valid_till", Confidence: 0.7, Box: domain.Rect{X1: 9, Y1: 10, X2: 11, Y2: 12}},
	}

	fields := CollectFields(dets, 0.5)

	assert.Len(t, fields, 3)
	assert.Equal(t, domain.Rect{X1: 1, Y1: 2, X2: 3, Y2: 4}, fields[domain.FieldHolderName].Box)
	assert.Equal(t, domain.Rect{X1: 5, Y1: 6, X2: 7, Y2: 8}, fields[domain.FieldDLNumber].Box)
	assert.Equal(t, domain.Rect{X1: 9, Y1: 10, X2: 11, Y2: 12}, fields[domain.FieldValidTill].Box)
}

func TestCollectFields_DiscardsUnknownClasses(t *testing.T) {
	dets := []domain.Detection{
		{Label: "license-card", Confidence: 0.99},
		{Label: "hologram", Confidence: 0.95},
		{Label: "name", Confidence: 0.9},
	}

	fields := CollectFields(dets, 0.5)

	assert.Len(t, fields, 1)
	_, ok := fields[domain.FieldHolderName]
	assert.True(t, ok)
}

func TestCollectFields_LastDetectionWinsPerLabel(t *testing.T) {
	first := domain.Rect{X1: 1, Y1: 1, X2: 2, Y2: 2}
	second := domain.Rect{X1: 3, Y1: 3, X2: 4, Y2: 4}

	dets := []domain.Detection{
		{Label: "dl_number", Confidence: 0.9, Box: first},
		{Label: "dl_number", Confidence: 0.6, Box: second},
	}

	fields := CollectFields(dets, 0.5)

	assert.Equal(t, second, fields[domain.FieldDLNumber].Box)
}

func TestCollectFields_FloorFiltersAndEmptyIsNotAnError(t *testing.T) {
	dets := []domain.Detection{
		{Label: "name", Confidence: 0.49},
	}

	fields := CollectFields(dets, 0.5)
	assert.Empty(t, fields)

	assert.Empty(t, CollectFields(nil, 0.5))
}
