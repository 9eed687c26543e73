package shared

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsAndSortsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("jobId", "", "is required")
	v.Enum("billingType", "retainer", []string{"flat_rate", "hourly", "per_task"}, "must be a known billing type")
	v.Positive("mileage", -3, "must not be negative")

	require.True(t, v.HasIssues())
	issues := v.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, "billingType", issues[0].Field)
	assert.Equal(t, "jobId", issues[1].Field)
	assert.Equal(t, "mileage", issues[2].Field)
}

func TestValidatorEnumIgnoresEmptyAndCase(t *testing.T) {
	v := NewValidator()
	v.Enum("status", "", []string{"active", "inactive"}, "unknown status")
	v.Enum("status", "Active", []string{"active", "inactive"}, "unknown status")
	assert.False(t, v.HasIssues())
}

func TestValidatorDate(t *testing.T) {
	v := NewValidator()
	parsed, ok := v.Date("dateWorked", "2025-03-04")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), parsed)

	_, ok = v.Date("dateWorked", "04/03/2025")
	assert.False(t, ok)
	assert.True(t, v.HasIssues())
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	v.DateOrder("fromDate", start, "toDate", end)
	require.True(t, v.HasIssues())
	assert.Len(t, v.Issues(), 2)
}

func TestRejectWritesValidationEnvelope(t *testing.T) {
	v := NewValidator()
	v.Add("hoursWorked", "must be positive")

	rec := httptest.NewRecorder()
	rejected := v.Reject(rec, "req-1")
	require.True(t, rejected)
	assert.Equal(t, 400, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "validation_error", body.Error.Code)
	require.Len(t, body.Error.Details.Fields, 1)
	assert.Equal(t, "hoursWorked", body.Error.Details.Fields[0].Field)
	assert.Equal(t, "req-1", body.RequestID)
}
