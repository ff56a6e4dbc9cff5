package stream

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/detector"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/config"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

const mjpegBoundary = "frame"

// CardFinder locates a license card on a frame
type CardFinder interface {
	Detect(frame gocv.Mat) domain.CardDetection
}

// CropSink persists an encoded card crop and returns its path
type CropSink interface {
	Save(jpeg []byte) (string, error)
}

// DetectionEmitter publishes qualifying detections, best effort
type DetectionEmitter interface {
	CardDetected(ctx context.Context, cropPath string, confidence float64, source string)
}

// Session owns one live stream: the capture device, the cooldown throttle
// and the most recent qualifying crop. Nothing here is shared between
// concurrent streams; the capture device itself is the only contended
// resource and is guarded only around open and close.
type Session struct {
	ID string

	cfg      *config.DetectorConfig
	cards    CardFinder
	throttle *Throttle
	crops    CropSink
	emitter  DetectionEmitter
	log      *logger.Logger

	mu  sync.Mutex // guards cam open/close, never the frame loop
	cam *gocv.VideoCapture

	cropMu       sync.Mutex
	lastCropPath string
}

// NewSession creates a stream session. The capture device is not opened
// until Open is called.
func NewSession(cfg *config.DetectorConfig, cards CardFinder, crops CropSink, emitter DetectionEmitter, log *logger.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		ID:       id,
		cfg:      cfg,
		cards:    cards,
		throttle: NewThrottle(cfg.Cooldown),
		crops:    crops,
		emitter:  emitter,
		log:      log.WithComponent("stream").WithSessionID(id),
	}
}

// Open acquires the capture device
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cam != nil {
		return fmt.Errorf("session already open")
	}

	cam, err := gocv.OpenVideoCapture(s.cfg.CameraDevice)
	if err != nil {
		return fmt.Errorf("failed to open capture device %d: %w", s.cfg.CameraDevice, err)
	}
	if !cam.IsOpened() {
		cam.Close()
		return fmt.Errorf("capture device %d is not opened", s.cfg.CameraDevice)
	}

	cam.Set(gocv.VideoCaptureFrameWidth, float64(s.cfg.FrameWidth))
	cam.Set(gocv.VideoCaptureFrameHeight, float64(s.cfg.FrameHeight))

	s.cam = cam
	s.log.Info().Int("device", s.cfg.CameraDevice).Msg("capture device opened")
	return nil
}

// Close releases the capture device. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cam == nil {
		return nil
	}
	err := s.cam.Close()
	s.cam = nil
	s.log.Info().Msg("capture device released")
	return err
}

// LastCropPath returns the most recent qualifying crop of this stream,
// empty if none has occurred yet.
func (s *Session) LastCropPath() string {
	s.cropMu.Lock()
	defer s.cropMu.Unlock()
	return s.lastCropPath
}

// Serve writes an MJPEG stream until the client disconnects or the capture
// device stops producing frames. Card detection runs whenever the cooldown
// has elapsed; a qualifying detection gets an overlay box, a persisted crop
// and a published event, and restarts the cooldown.
func (s *Session) Serve(w http.ResponseWriter, r *http.Request) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	w.Header().Set("Cache-Control", "no-cache")

	frame := gocv.NewMat()
	defer frame.Close()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if ok := s.cam.Read(&frame); !ok {
			// The capture device signals end-of-stream (or a dead camera)
			// through an unsuccessful read. Spinning on it would peg a CPU.
			s.log.Warn().Msg("frame read failed, ending stream")
			return nil
		}
		if frame.Empty() {
			continue
		}

		if card, found := s.detectCard(frame); found {
			s.handleDetection(ctx, frame, card)
			drawOverlay(&frame, card)
		}

		buf, err := gocv.IMEncode(".jpg", frame)
		if err != nil {
			s.log.Warn().Err(err).Msg("frame encode failed")
			continue
		}

		jpeg := buf.GetBytes()
		if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(jpeg)); err != nil {
			buf.Close()
			return nil // client gone
		}
		if _, err := w.Write(jpeg); err != nil {
			buf.Close()
			return nil
		}
		fmt.Fprint(w, "\r\n")
		buf.Close()
		flusher.Flush()
	}
}

// detectCard runs card detection on the frame unless the cooldown is still
// in effect. Inference is the expensive step, so the throttle gates the
// detector call itself, not just what happens with its result. Only a
// qualifying detection restarts the cooldown window.
func (s *Session) detectCard(frame gocv.Mat) (domain.CardDetection, bool) {
	if !s.throttle.ShouldAttempt() {
		return domain.CardDetection{}, false
	}

	card := s.cards.Detect(frame)
	if card.Found {
		s.throttle.Mark()
	}
	return card, card.Found
}

// handleDetection persists the crop of a qualifying detection and publishes
// the detection event.
func (s *Session) handleDetection(ctx context.Context, frame gocv.Mat, card domain.CardDetection) {
	crop, err := detector.CropRegion(frame, card.Box)
	if err != nil {
		s.log.Warn().Err(err).Msg("card crop failed")
		return
	}
	defer crop.Close()

	buf, err := gocv.IMEncode(".jpg", crop)
	if err != nil {
		s.log.Warn().Err(err).Msg("card crop encode failed")
		return
	}
	defer buf.Close()

	path, err := s.crops.Save(buf.GetBytes())
	if err != nil {
		s.log.Error().Err(err).Msg("card crop persist failed")
		return
	}

	s.cropMu.Lock()
	s.lastCropPath = path
	s.cropMu.Unlock()

	s.log.Info().
		Str("crop_path", path).
		Float64("confidence", card.Confidence).
		Msg("card detected on stream")

	if s.emitter != nil {
		s.emitter.CardDetected(ctx, path, card.Confidence, "stream")
	}
}

// drawOverlay draws the detection box and confidence caption onto the frame
func drawOverlay(frame *gocv.Mat, card domain.CardDetection) {
	green := color.RGBA{G: 255}
	rect := image.Rect(card.Box.X1, card.Box.Y1, card.Box.X2, card.Box.Y2)
	gocv.Rectangle(frame, rect, green, 2)

	caption := fmt.Sprintf("license-card %.2f", card.Confidence)
	origin := image.Pt(card.Box.X1, card.Box.Y1-8)
	gocv.PutText(frame, caption, origin, gocv.FontHersheySimplex, 0.6, green, 2)
}
