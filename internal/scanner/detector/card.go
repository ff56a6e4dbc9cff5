package detector

import (
	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
	"gocv.io/x/gocv"
)

// CardClass is the single class the card-stage model is trained on.
const CardClass = "license-card"

// CardDetector locates at most one license card per frame. A frame counts
// as a detection only when the best card candidate clears the confidence
// gate, strictly: a score exactly at the gate does not pass.
type CardDetector struct {
	net  Inference
	gate float64
	log  *logger.Logger
}

// NewCardDetector creates a card detector with the given confidence gate
func NewCardDetector(net Inference, gate float64, log *logger.Logger) *CardDetector {
	return &CardDetector{
		net:  net,
		gate: gate,
		log:  log.WithComponent("card_detector"),
	}
}

// Gate returns the configured confidence gate
func (d *CardDetector) Gate() float64 { return d.gate }

// Detect runs the card stage over a frame. A model invocation failure is
// logged and reported as no detection; the stream loop must survive a
// flaky model.
func (d *CardDetector) Detect(frame gocv.Mat) domain.CardDetection {
	detections, err := d.net.Infer(frame)
	if err != nil {
		d.log.Error().Err(err).Msg("card inference failed")
		return domain.CardDetection{}
	}
	return SelectCard(detections, d.gate)
}

// SelectCard picks the qualifying license-card detection from raw model
// output. The highest-confidence candidate wins, regardless of the order
// the model ranked them in.
func SelectCard(detections []domain.Detection, gate float64) domain.CardDetection {
	best := domain.CardDetection{}
	for _, det := range detections {
		if det.Label != CardClass {
			continue
		}
		if det.Confidence > best.Confidence {
			best = domain.CardDetection{
				Found:      true,
				Confidence: det.Confidence,
				Box:        det.Box,
			}
		}
	}

	// Strict inequality: a card scoring exactly at the gate is rejected.
	if !best.Found || best.Confidence <= gate {
		return domain.CardDetection{}
	}
	return best
}
