package models

// Project is a catalog item that a project query can resolve to
type Project struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// RankedCandidate is a catalog item scored against a query. Score is in [0, 1].
type RankedCandidate struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

// Project converts the candidate back into a catalog item
func (c RankedCandidate) Project() Project {
	return Project{ID: c.ID, Name: c.DisplayName}
}
