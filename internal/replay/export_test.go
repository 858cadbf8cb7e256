package replay

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportRecs = []Recommendation{
	{Priority: 1, Region: "north", Action: "escalate", Reason: "sustained composite risk above 80", MeanComposite: 83.456, Events: 12},
	{Priority: 3, Region: "east", Action: "dispatch-supplies", Reason: "mean supply pressure below 30", MeanComposite: 55.5, Events: 8},
}

func TestExportRecommendationsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportRecommendationsCSV(exportRecs, &buf))

	want := "priority,region,action,reason,mean_composite,events\n" +
		"1,north,escalate,sustained composite risk above 80,83.46,12\n" +
		"3,east,dispatch-supplies,mean supply pressure below 30,55.50,8\n"
	assert.Equal(t, want, buf.String())
}

func TestExportRecommendationsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportRecommendationsCSV(nil, &buf))
	assert.Equal(t, "priority,region,action,reason,mean_composite,events\n", buf.String())
}

func TestExportRecommendationsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportRecommendationsJSON(exportRecs, &buf))

	var got struct {
		Count           int              `json:"count"`
		Recommendations []Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, exportRecs, got.Recommendations)
}

func TestExportRecommendationsJSON_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, ExportRecommendationsJSON(exportRecs, &a))
	require.NoError(t, ExportRecommendationsJSON(exportRecs, &b))
	assert.Equal(t, a.String(), b.String())

	var empty bytes.Buffer
	require.NoError(t, ExportRecommendationsJSON(nil, &empty))
	assert.Contains(t, empty.String(), `"count": 0`)
}
