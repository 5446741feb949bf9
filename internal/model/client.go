package model

// Client is a person identified by email making one or more reservations.
// Clients are created lazily the first time an email is seen during
// reservation creation and are never updated or deleted afterwards.
// Email is stored trimmed and lower-cased and carries a unique index.
type Client struct {
	ID        uint64 `json:"id"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone,omitempty"`
}
