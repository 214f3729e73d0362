package models

// AdminRef is the public view of a franchise administrator.
type AdminRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Store is a single outlet belonging to a franchise. The owning franchise
// is fixed at creation.
type Store struct {
	ID          int64  `json:"id"`
	FranchiseID int64  `json:"-"`
	Name        string `json:"name"`
}

// Franchise groups stores under a set of administrators. Admins keeps the
// order in which administrators were supplied at creation.
type Franchise struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Admins []AdminRef `json:"admins"`
	Stores []Store    `json:"stores"`
}
