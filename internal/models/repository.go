package models

// RepositoryRef is the reduced projection of a GitHub repository returned to clients.
type RepositoryRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Private  bool   `json:"private"`
}
