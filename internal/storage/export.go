package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run   RunMetadata  `json:"run"`
	Trace []TracePoint `json:"trace"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, trace []TracePoint) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Trace: trace})
}
