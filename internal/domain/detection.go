package domain

// DetectionBox is one detector hit inside a frame, in pixel coordinates.
type DetectionBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Label  string  `json:"label,omitempty"`
}
