package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/entrainlab/entrain/internal/models"
)

// writeJSON emits the full report as indented JSON. The struct tags on
// the models package define the wire shape; nothing is reformatted here.
func writeJSON(w io.Writer, r *models.EntrainReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
