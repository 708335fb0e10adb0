package domain

type Category struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}
