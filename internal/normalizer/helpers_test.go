package normalizer

import (
	"bookingscore/internal/models"
	"bookingscore/internal/schema"
)

// hotelSchema mirrors the shipped artifact on a smaller feature set.
func hotelSchema() *schema.Schema {
	return &schema.Schema{
		Name:    "test",
		Version: 1,
		Labels:  map[int]string{0: "Not Canceled", 1: "Canceled"},
		Fields: []schema.Field{
			{Name: "booking_id", Kind: schema.KindExcluded},
			{Name: "hotel", Kind: schema.KindCategorical, Vocabulary: schema.MustVocabulary(map[string]int{
				"Resort Hotel": 0,
				"City Hotel":   1,
			})},
			{Name: "lead_time", Kind: schema.KindNumeric},
			{Name: "deposit_type", Kind: schema.KindCategorical, Vocabulary: schema.MustVocabulary(map[string]int{
				"No Deposit": 0,
				"Refundable": 1,
				"Non Refund": 2,
			})},
			{Name: "reservation_status_date", Kind: schema.KindExcluded},
		},
	}
}

// batchOf builds a batch of string cells from a header and rows.
func batchOf(columns []string, rows ...[]string) *models.Batch {
	b := models.NewBatch(columns...)

	for _, r := range rows {
		rec := make(models.Record, len(columns))

		for i, c := range columns {
			if r[i] == "" {
				rec[c] = models.MissingValue()
			} else {
				rec[c] = models.StringValue(r[i])
			}
		}

		b.Rows = append(b.Rows, rec)
	}

	return b
}
