package dto

type FranchiseAdmin struct {
	Email string `json:"email"`
}

type CreateFranchiseRequest struct {
	Name   string           `json:"name"`
	Admins []FranchiseAdmin `json:"admins"`
}

type CreateStoreRequest struct {
	Name string `json:"name"`
}
