package models

type Base struct {
	ID        string `json:"id,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
	UpdatedAt int64  `json:"updated_at,omitempty"`
}

type ListMeta struct {
	Total uint64 `json:"total"`
}

type Network struct {
	ChainID int64  `json:"chain_id"`
	Name    string `json:"name"`
}
