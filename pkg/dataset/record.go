// Package dataset defines the output record format and its JSONL
// serialization. The engine produces records; writing files and laying out
// output directories stays with the callers.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
)

// Record is one generated question: the scene and template it came from,
// the rendered text, the bound program that computes the answer, and the
// answer itself. Re-evaluating Program against the scene must always
// reproduce Answer.
type Record struct {
	SceneID    string            `json:"scene_id"`
	TemplateID string            `json:"template_id"`
	Family     string            `json:"family"`
	Question   string            `json:"question_text"`
	Program    *program.Node     `json:"program"`
	Binding    map[string]string `json:"binding,omitempty"`
	Answer     string            `json:"answer"`
	// BalanceRelaxed marks records accepted past the distribution bound.
	BalanceRelaxed bool `json:"balance_relaxed,omitempty"`
}

// WriteJSONL streams records as one JSON object per line.
func WriteJSONL(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadJSONL decodes records written by WriteJSONL.
func ReadJSONL(r io.Reader) ([]Record, error) {
	var out []Record
	dec := json.NewDecoder(r)
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, fmt.Errorf("decode record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}
