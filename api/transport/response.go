package transport

import "encoding/json"

// Envelope is the uniform JSON wrapper for every API response. Success
// responses carry Data, error responses carry Code and Error; Meta is free
// form and optional on both.
type Envelope struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  any    `json:"error,omitempty"`
	Meta   any    `json:"meta,omitempty"`
}

func NewSuccess(data any, meta any) Envelope {
	return Envelope{Status: "success", Data: data, Meta: meta}
}

func NewError(code string, err any, meta any) Envelope {
	return Envelope{Status: "error", Code: code, Error: err, Meta: meta}
}

// String renders the envelope as JSON for log output.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return `{"status":"error"}`
	}
	return string(out)
}
