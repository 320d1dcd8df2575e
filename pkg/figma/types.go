package figma

// Design is the preprocessed design data handed to the designer stage.
// Document is the raw node tree as returned by the API; the extracted
// token slices are what the prompts actually consume.
type Design struct {
	FileKey    string         `json:"file_key"`
	NodeID     string         `json:"node_id,omitempty"`
	Name       string         `json:"name"`
	Document   map[string]any `json:"document"`
	Colors     []string       `json:"colors"`
	Fonts      []Font         `json:"fonts"`
	Components []Component    `json:"components"`
}

// Font is a distinct font usage found in the node tree.
type Font struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Weight float64 `json:"weight"`
}

// Component summarizes a container node (frame, component, instance, group).
type Component struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Depth         int     `json:"depth"`
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
	ChildrenCount int     `json:"children_count"`
}
