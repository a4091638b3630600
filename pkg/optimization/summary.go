// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single optimization directive.
type Summary struct {
	DealName        string   `json:"dealName"`
	Field           string   `json:"field"`
	Metric          string   `json:"metric"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Floor           float64  `json:"floor"`
	Achieved        float64  `json:"achieved"`
	Headroom        float64  `json:"headroom"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}
