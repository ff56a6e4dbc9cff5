package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/testutil"
)

type fakeRegistry struct {
	exists bool
	record *domain.LicenseRecord

	gotNumber string
	gotName   string
	gotTill   string
}

func (f *fakeRegistry) Verify(ctx context.Context, dlNumber, name, validTill string) (bool, *domain.LicenseRecord) {
	f.gotNumber = dlNumber
	f.gotName = name
	f.gotTill = validTill
	return f.exists, f.record
}

type fakeEmitter struct {
	outcomes []domain.Outcome
}

func (f *fakeEmitter) LicenseVerified(ctx context.Context, dlNumber string, isValid, existsInDB bool, outcome domain.Outcome) {
	f.outcomes = append(f.outcomes, outcome)
}

func newTestVerifier(reg *fakeRegistry) (*Verifier, *fakeEmitter) {
	em := &fakeEmitter{}
	return NewVerifier(reg, em, testutil.NewTestLogger()), em
}

func TestVerifier_GrantedWhenEnrolledAndCurrent(t *testing.T) {
	reg := &fakeRegistry{exists: true, record: &domain.LicenseRecord{ID: 1, DLNumber: "DL123456"}}
	v, em := newTestVerifier(reg)

	result := v.Verify(context.Background(), map[domain.FieldName]string{
		domain.FieldHolderName: "JANE DOE",
		domain.FieldDLNumber:   "DL123456",
		domain.FieldValidTill:  "01/01/2999",
	})

	assert.True(t, result.IsValid)
	assert.True(t, result.ExistsInDB)
	assert.Equal(t, domain.OutcomeGranted, result.Outcome)
	require.NotNil(t, result.DBDetails)
	assert.Equal(t, int64(1), result.DBDetails.ID)

	// The future date is canonicalized before the registry sees it.
	assert.Equal(t, "2999-01-01", reg.gotTill)
	assert.Equal(t, "DL123456", reg.gotNumber)

	require.Len(t, em.outcomes, 1)
	assert.Equal(t, domain.OutcomeGranted, em.outcomes[0])
}

func TestVerifier_ExpiredDominatesEnrollment(t *testing.T) {
	reg := &fakeRegistry{exists: true, record: &domain.LicenseRecord{ID: 1}}
	v, _ := newTestVerifier(reg)

	result := v.Verify(context.Background(), map[domain.FieldName]string{
		domain.FieldHolderName: "JANE DOE",
		domain.FieldDLNumber:   "DL123456",
		domain.FieldValidTill:  "2000-01-01",
	})

	assert.False(t, result.IsValid)
	assert.True(t, result.ExistsInDB)
	assert.Equal(t, domain.OutcomeExpired, result.Outcome)
}

func TestVerifier_DeniedWhenNotEnrolled(t *testing.T) {
	reg := &fakeRegistry{exists: false}
	v, _ := newTestVerifier(reg)

	result := v.Verify(context.Background(), map[domain.FieldName]string{
		domain.FieldHolderName: "JANE DOE",
		domain.FieldDLNumber:   "DL123456",
		domain.FieldValidTill:  "2999-01-01",
	})

	assert.True(t, result.IsValid)
	assert.False(t, result.ExistsInDB)
	assert.Nil(t, result.DBDetails)
	assert.Equal(t, domain.OutcomeDenied, result.Outcome)
}

func TestVerifier_MissingFieldsStayEmptyAndFailClosed(t *testing.T) {
	reg := &fakeRegistry{}
	v, _ := newTestVerifier(reg)

	result := v.Verify(context.Background(), map[domain.FieldName]string{
		domain.FieldHolderName: "JANE DOE",
	})

	assert.Equal(t, "", result.LicenseData[domain.FieldDLNumber])
	assert.Equal(t, "", result.LicenseData[domain.FieldValidTill])
	assert.False(t, result.IsValid)
	assert.Equal(t, domain.OutcomeExpired, result.Outcome)
}

func TestVerifier_NormalizesNoiseBeforeLookup(t *testing.T) {
	reg := &fakeRegistry{}
	v, _ := newTestVerifier(reg)

	result := v.Verify(context.Background(), map[domain.FieldName]string{
		domain.FieldHolderName: "JANE   DOE!!",
		domain.FieldDLNumber:   "DL@123#456",
	})

	assert.Equal(t, "JANE DOE", result.LicenseData[domain.FieldHolderName])
	assert.Equal(t, "DL123456", result.LicenseData[domain.FieldDLNumber])
	assert.Equal(t, "JANE DOE", reg.gotName)
	assert.Equal(t, "DL123456", reg.gotNumber)
}

func TestVerifier_UnparsableDateFailsClosed(t *testing.T) {
	reg := &fakeRegistry{}
	v, _ := newTestVerifier(reg)

	result := v.Verify(context.Background(), map[domain.FieldName]string{
		domain.FieldValidTill: "99/99/2025",
	})

	assert.False(t, result.IsValid)
	assert.Equal(t, domain.OutcomeExpired, result.Outcome)
}

func TestVerifier_UnknownFieldIgnored(t *testing.T) {
	reg := &fakeRegistry{}
	v, _ := newTestVerifier(reg)

	result := v.Verify(context.Background(), map[domain.FieldName]string{
		domain.FieldName("hologram"): "shiny",
	})

	_, ok := result.LicenseData[domain.FieldName("hologram")]
	assert.False(t, ok)
	assert.Len(t, result.LicenseData, 3)
}
