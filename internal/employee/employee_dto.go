package employee

type CreateEmployeeRequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	Email        string `json:"email" binding:"required,email"`
	DepartmentID string `json:"departmentId" binding:"required,uuid"`
}

type EmployeeResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	DepartmentID string `json:"departmentId"`
	CreatedAt    string `json:"createdAt"`
}
