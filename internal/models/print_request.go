package models

// PrintRequest is the payload of the print service. Either Content or
// Template is set; Data feeds the template's placeholders.
type PrintRequest struct {
	Content  string         `json:"content,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
