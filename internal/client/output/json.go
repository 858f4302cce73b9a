package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONResponse is the standard JSON output format
type JSONResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// OutputJSON writes data in the JSON envelope. errMsg is empty on success.
func OutputJSON(w io.Writer, data any, errMsg string) error {
	response := JSONResponse{
		Success: errMsg == "",
		Data:    data,
		Error:   errMsg,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
