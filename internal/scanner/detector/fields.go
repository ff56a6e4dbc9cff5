package detector

import (
	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
	"gocv.io/x/gocv"
)

// FieldDetector locates the name, dl_number and valid_till sub-regions
// within a card crop.
type FieldDetector struct {
	net   Inference
	floor float64
	log   *logger.Logger
}

// NewFieldDetector creates a field detector with the given confidence floor
func NewFieldDetector(net Inference, floor float64, log *logger.Logger) *FieldDetector {
	return &FieldDetector{
		net:   net,
		floor: floor,
		log:   log.WithComponent("field_detector"),
	}
}

// Detect runs the field stage over a card crop. An empty map is a normal
// outcome, not an error: callers leave dependent fields empty.
func (d *FieldDetector) Detect(card gocv.Mat) map[domain.FieldName]domain.FieldRegion {
	detections, err := d.net.Infer(card)
	if err != nil {
		d.log.Error().Err(err).Msg("field inference failed")
		return map[domain.FieldName]domain.FieldRegion{}
	}
	return CollectFields(detections, d.floor)
}

// CollectFields maps raw field-stage output to labeled regions. Classes
// outside the three recognized fields are discarded; when the same label
// appears more than once, the later detection in model order wins.
func CollectFields(detections []domain.Detection, floor float64) map[domain.FieldName]domain.FieldRegion {
	fields := make(map[domain.FieldName]domain.FieldRegion)
	for _, det := range detections {
		if det.Confidence < floor {
			continue
		}
		name := domain.FieldName(det.Label)
		if !domain.KnownField(name) {
			continue
		}
		fields[name] = domain.FieldRegion{Field: name, Box: det.Box}
	}
	return fields
}
