package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"gocv.io/x/gocv"
)

// Inference is one forward pass over a frame. Implementations must be safe
// for concurrent use; both scan paths and the live stream share a model.
type Inference interface {
	Infer(img gocv.Mat) ([]domain.Detection, error)
	Close() error
}

// NetConfig holds YOLO model configuration
type NetConfig struct {
	ModelPath   string
	ClassNames  []string
	InputWidth  int
	InputHeight int

	// ScoreThresh is the raw candidate floor fed to NMS, kept low so the
	// card/field stages apply their own gates on top.
	ScoreThresh float32
	NMSThresh   float32
}

// Net wraps a gocv ONNX YOLOv8 network
type Net struct {
	net    gocv.Net
	config NetConfig
	mu     sync.Mutex
}

// NewNet loads a YOLOv8 ONNX model from disk
func NewNet(cfg NetConfig) (*Net, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if cfg.ScoreThresh == 0 {
		cfg.ScoreThresh = 0.25
	}
	if cfg.NMSThresh == 0 {
		cfg.NMSThresh = 0.45
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Net{net: net, config: cfg}, nil
}

// Infer runs one forward pass and returns labeled detections in confidence
// order as ranked by NMS.
func (n *Net) Infer(img gocv.Mat) ([]domain.Detection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := float32(img.Cols())
	imgH := float32(img.Rows())

	inputSize := image.Pt(n.config.InputWidth, n.config.InputHeight)
	blob := gocv.BlobFromImage(img, 1.0/255.0, inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	n.net.SetInput(blob, "")

	output := n.net.Forward("")
	defer output.Close()

	return n.parseOutput(output, imgW, imgH), nil
}

// parseOutput parses the YOLOv8 output tensor.
// Output shape: [1, 4+C, N] where C is the class count.
func (n *Net) parseOutput(output gocv.Mat, imgW, imgH float32) []domain.Detection {
	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	rows := output.Cols() // N candidate detections
	cols := output.Rows() // 4 bbox values + class scores

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	for i := 0; i < rows; i++ {
		maxScore := float32(0)
		maxClassID := 0

		for c := 4; c < cols; c++ {
			score := data[c*rows+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxScore < n.config.ScoreThresh {
			continue
		}

		// Center format to corners, scaled back to image size
		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * imgW / float32(n.config.InputWidth))
		y1 := int((cy - h/2) * imgH / float32(n.config.InputHeight))
		x2 := int((cx + w/2) * imgW / float32(n.config.InputWidth))
		y2 := int((cy + h/2) * imgH / float32(n.config.InputHeight))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, n.config.ScoreThresh, n.config.NMSThresh)

	detections := make([]domain.Detection, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		detections = append(detections, domain.Detection{
			Label:      n.className(classIDs[idx]),
			Confidence: float64(confidences[idx]),
			Box: domain.Rect{
				X1: box.Min.X,
				Y1: box.Min.Y,
				X2: box.Max.X,
				Y2: box.Max.Y,
			},
		})
	}

	return detections
}

func (n *Net) className(id int) string {
	if id >= 0 && id < len(n.config.ClassNames) {
		return n.config.ClassNames[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// Close releases the network resources
func (n *Net) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.net.Close()
}

// CropRegion extracts the bounded sub-image, clamping the box to the frame.
// The returned Mat shares memory with src; callers clone before src is
// released.
func CropRegion(src gocv.Mat, box domain.Rect) (gocv.Mat, error) {
	rect := image.Rect(box.X1, box.Y1, box.X2, box.Y2).
		Intersect(image.Rect(0, 0, src.Cols(), src.Rows()))
	if rect.Empty() {
		return gocv.Mat{}, fmt.Errorf("crop region %+v outside frame", box)
	}
	return src.Region(rect), nil
}
