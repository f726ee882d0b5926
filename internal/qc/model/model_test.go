package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurement_UnmarshalJSON(t *testing.T) {
	var body struct {
		A Measurement `json:"a"`
		B Measurement `json:"b"`
		C Measurement `json:"c"`
		D Measurement `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 99.50, "b": " 1e2 ", "c": null, "d": "n/a"}`), &body))

	assert.Equal(t, Measurement("99.50"), body.A)
	assert.Equal(t, Measurement("1e2"), body.B)
	assert.False(t, body.C.IsSet())

	v, ok := body.B.Float()
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)

	_, ok = body.D.Float()
	assert.False(t, ok)
	for _, m := range []Measurement{"NaN", "Inf", "-Inf", ""} {
		_, ok := m.Float()
		assert.False(t, ok, string(m))
	}

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &body))
}

func TestAuditLogEntry_Hash(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	e := &AuditLogEntry{
		ID: "e1", UserID: "u1", Username: "alice", Action: ActionCreate,
		EntityType: EntityTest, EntityID: "r1", Timestamp: ts,
		Details: map[string]string{"b": "2", "a": "1"},
	}
	e.Seal(1, "")
	require.Len(t, e.Hash, 64)

	// Map order and timezone do not affect the hash
	same := *e
	same.Details = map[string]string{"a": "1", "b": "2"}
	same.Timestamp = ts.In(time.FixedZone("X", 3600))
	assert.Equal(t, e.Hash, same.ComputeHash())

	// Nil and empty details hash alike
	a, b := *e, *e
	a.Details, b.Details = nil, map[string]string{}
	assert.Equal(t, a.ComputeHash(), b.ComputeHash())

	changed := *e
	changed.Details = map[string]string{"a": "1", "b": "3"}
	assert.NotEqual(t, e.Hash, changed.ComputeHash())

	relinked := *e
	relinked.PrevHash = "x"
	assert.NotEqual(t, e.Hash, relinked.ComputeHash())
}

func TestCreateTestRecordReq_Validate(t *testing.T) {
	req := &CreateTestRecordReq{
		BatchNumber: "  BN1 ",
		ProductName: "Aspirin",
		ResultValue: "5",
		TestDate:    "2025-02-30",
		TestTime:    "25:00",
	}
	err := req.Validate()
	require.Error(t, err)
	detail, ok := err.(*ErrorDetail)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, detail.Code)
	assert.Equal(t, "BN1", req.BatchNumber)

	var fields []string
	for _, f := range detail.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"test_date", "test_time"}, fields)
}

func TestUpdateTestRecordReq_Validate(t *testing.T) {
	empty := ""
	bad := Measurement("x")
	good := Measurement(" 7 ")
	batch := "BN2"

	assert.Error(t, (&UpdateTestRecordReq{}).Validate(), "no fields")
	assert.Error(t, (&UpdateTestRecordReq{BatchNumber: &batch}).Validate())
	assert.Error(t, (&UpdateTestRecordReq{TestDate: &empty}).Validate())
	assert.Error(t, (&UpdateTestRecordReq{ResultValue: &bad}).Validate())

	req := &UpdateTestRecordReq{ResultValue: &good}
	require.NoError(t, req.Validate())
	assert.Equal(t, []string{"result_value"}, req.ChangedFields())

	rec := &TestRecord{ResultValue: "1", Comments: "kept"}
	req.Apply(rec)
	assert.Equal(t, Measurement("7"), rec.ResultValue)
	assert.Equal(t, "kept", rec.Comments)
}

func TestGetAuditLogsReq_ToFilter(t *testing.T) {
	req := &GetAuditLogsReq{Action: "sign", DateFrom: "2025-01-01", DateTo: "2025-01-31", Page: 2, Size: 10}
	require.NoError(t, req.Validate())

	f := req.ToFilter()
	assert.Equal(t, ActionSign, f.Action)
	assert.Equal(t, 10, f.Skip)
	require.NotNil(t, f.From)
	require.NotNil(t, f.Until)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *f.Until)

	assert.Error(t, (&GetAuditLogsReq{DateFrom: "2025-02-01", DateTo: "2025-01-01"}).Validate())
}

func TestRegisterReq_Validate(t *testing.T) {
	ok := &RegisterReq{Username: "bob", Password: "12345678", FullName: "Bob", Role: RoleAuditor, Email: " Bob@Example.COM "}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "bob@example.com", ok.Email)

	bad := &RegisterReq{Username: "bob", Password: "12345678", FullName: "Bob", Role: "Owner"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, "role", err.(*ErrorDetail).Fields[0].Field)
}
