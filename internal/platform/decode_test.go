package platform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeList_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bare array", `[{"id":1}]`, `[{"id":1}]`},
		{"resource key", `{"products":[{"id":1}]}`, `[{"id":1}]`},
		{"data key", `{"data":[{"id":1}],"total":1}`, `[{"id":1}]`},
		{"nested data", `{"data":{"products":[{"id":1}]}}`, `[{"id":1}]`},
		{"results key", `{"results":[]}`, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeList("products", []byte(tt.body), "products")
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestNormalizeList_Mismatch(t *testing.T) {
	for _, body := range []string{`{"brands":{"id":1}}`, `"nope"`, ``, `{"message":"x"}`} {
		_, err := normalizeList("brands", []byte(body), "brands")
		var shapeErr *ErrShape
		assert.ErrorAs(t, err, &shapeErr, body)
	}
}

func TestParseSerialNumbers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"absent", ``, nil},
		{"null", `null`, nil},
		{"array", `["SN1","SN2"]`, []string{"SN1", "SN2"}},
		{"numeric array", `[101, 102]`, []string{"101", "102"}},
		{"encoded once", `"[\"SN1\",\"SN2\"]"`, []string{"SN1", "SN2"}},
		{"encoded twice", `"\"[\\\"SN1\\\"]\""`, []string{"SN1"}},
		{"literal", `"SN-0001"`, []string{"SN-0001"}},
		{"broken json literal", `"[SN1, SN2"`, []string{"[SN1, SN2"}},
		{"empty string", `""`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSerialNumbers(json.RawMessage(tt.raw)))
		})
	}
}

func TestFlexTypes(t *testing.T) {
	var s struct {
		ID     flexString `json:"id"`
		Stock  flexInt    `json:"stock"`
		Active flexBool   `json:"active"`
		Off    flexBool   `json:"off"`
		When   flexTime   `json:"when"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"stock":"7","active":1,"off":"false","when":"2025-03-04 10:00:00"}`), &s))

	assert.Equal(t, flexString("42"), s.ID)
	assert.Equal(t, flexInt(7), s.Stock)
	assert.True(t, s.Active.Set && s.Active.Value)
	assert.True(t, s.Off.Set && !s.Off.Value)
	assert.Equal(t, 2025, timeOf(s.When).Year())
}
