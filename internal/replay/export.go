package replay

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ExportRecommendationsCSV writes the recommendation list as flat tabular
// rows. Output is deterministic for a given window state: Recommend already
// orders by (priority, region).
func ExportRecommendationsCSV(recs []Recommendation, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"priority", "region", "action", "reason", "mean_composite", "events"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range recs {
		row := []string{
			strconv.Itoa(r.Priority),
			r.Region,
			r.Action,
			r.Reason,
			strconv.FormatFloat(r.MeanComposite, 'f', 2, 64),
			strconv.Itoa(r.Events),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// recommendationExport is the structured record form of the export.
type recommendationExport struct {
	Count           int              `json:"count"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ExportRecommendationsJSON writes the recommendation list as a structured
// JSON record, deterministic for a given window state.
func ExportRecommendationsJSON(recs []Recommendation, w io.Writer) error {
	if recs == nil {
		recs = []Recommendation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recommendationExport{Count: len(recs), Recommendations: recs})
}
