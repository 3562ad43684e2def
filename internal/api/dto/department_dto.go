package dto

// DepartmentRequest payload for create/update.
type DepartmentRequest struct {
	Name   string  `json:"name"`
	HeadID *string `json:"head"`
}

// DepartmentResponse representation.
type DepartmentResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	HeadID   *string `json:"head"`
	HeadName *string `json:"head_name"`
}
