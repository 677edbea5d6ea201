package shaper

import "github.com/queryforge/queryforge/internal/plan"

// BatchRow is one row of a fused batch statement's result set: a key
// tagging which original query it belongs to, and that query's full
// row set JSON-encoded as an array.
type BatchRow struct {
	Key    string
	Result interface{}
}

// DemuxBatch splits a fused batch statement's rows back into one
// shaped result per original query key, using each key's own plan to
// reapply its Unwrap mode to its slice of rows.
func DemuxBatch(plans map[string]*plan.Plan, rows []BatchRow) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(rows))
	for _, row := range rows {
		p, ok := plans[row.Key]
		if !ok {
			return nil, newErr(row.Key, "no plan registered for this batch key")
		}

		decoded, err := decodeJSON(row.Result, row.Key)
		if err != nil {
			return nil, err
		}

		var elements []interface{}
		if decoded != nil {
			arr, ok := decoded.([]interface{})
			if !ok {
				return nil, newErr(row.Key, "expected a JSON array of rows, got %T", decoded)
			}
			elements = arr
		}

		itemRows := make([]Row, 0, len(elements))
		for i, el := range elements {
			obj, ok := el.(map[string]interface{})
			if !ok {
				return nil, newErr(pathIndexOf(row.Key, i), "expected a JSON object row, got %T", el)
			}
			itemRows = append(itemRows, Row(obj))
		}

		shaped, err := Shape(p, itemRows)
		if err != nil {
			return nil, err
		}
		out[row.Key] = shaped
	}
	return out, nil
}
