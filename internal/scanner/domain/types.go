package domain

import "time"

// FieldName identifies one of the recognized license fields
type FieldName string

const (
	FieldHolderName FieldName = "name"
	FieldDLNumber   FieldName = "dl_number"
	FieldValidTill  FieldName = "valid_till"
)

// KnownField reports whether a detector class label maps to a recognized
// field. Unknown classes are discarded by the field detector.
func KnownField(name FieldName) bool {
	switch name {
	case FieldHolderName, FieldDLNumber, FieldValidTill:
		return true
	}
	return false
}

// Rect is a bounding box in pixel coordinates (x1,y1 top-left, x2,y2
// bottom-right).
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Zero reports whether the box is the degenerate no-detection box.
func (r Rect) Zero() bool {
	return r.X1 == 0 && r.Y1 == 0 && r.X2 == 0 && r.Y2 == 0
}

// Width returns the box width in pixels
func (r Rect) Width() int { return r.X2 - r.X1 }

// Height returns the box height in pixels
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Detection is a single raw detector output
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Rect    `json:"box"`
}

// CardDetection is the card-stage result: at most one license-card region
// per frame, plus the confidence that gates crop persistence.
type CardDetection struct {
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence"`
	Box        Rect    `json:"box"`
}

// FieldRegion is a field-stage sub-region within a card crop
type FieldRegion struct {
	Field FieldName `json:"field"`
	Box   Rect      `json:"box"`
}

// LicenseRecord is a registry row. Records are created only through
// enrollment and never mutated afterwards.
type LicenseRecord struct {
	ID        int64     `db:"id" json:"id"`
	DLNumber  string    `db:"dl_number" json:"dl_number"`
	Name      string    `db:"name" json:"name"`
	ValidTill time.Time `db:"valid_till" json:"valid_till"`
	ImagePath string    `db:"image_path" json:"image_path"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DetectResult is the card-stage answer for a single submitted image.
// A non-detection is a normal result, not an error.
type DetectResult struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence,omitempty"`
	CropPath   string  `json:"crop_path,omitempty"`
}

// PipelineResult carries the outcome of one verify pass between the
// pipeline and the presentation layer. Each pass produces a fresh result;
// nothing about a verify is kept in ambient session state.
type PipelineResult struct {
	LicenseData map[FieldName]string `json:"license_data"`
	IsValid     bool                 `json:"is_valid"`
	ExistsInDB  bool                 `json:"exists_in_db"`
	DBDetails   *LicenseRecord       `json:"db_details,omitempty"`
	Outcome     Outcome              `json:"outcome"`
}

// Outcome classifies a verify pass for presentation
type Outcome string

const (
	OutcomeGranted Outcome = "granted" // on record and currently valid
	OutcomeExpired Outcome = "expired" // expiry date passed or unparsable
	OutcomeDenied  Outcome = "denied"  // valid date but not on record
)

// ClassifyOutcome applies the presentation rule: expiry failures dominate,
// a valid but unknown license is denied.
func ClassifyOutcome(isValid, existsInDB bool) Outcome {
	switch {
	case existsInDB && isValid:
		return OutcomeGranted
	case !isValid:
		return OutcomeExpired
	default:
		return OutcomeDenied
	}
}
