package department

import "go-workforce/internal/shared/response"

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type DepartmentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type EmployeeResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	DepartmentID string `json:"departmentId"`
}

type LeaveResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status"`
}

type EmployeeWithLeavesResponse struct {
	EmployeeResponse
	LeaveRequests []LeaveResponse `json:"leaveRequests"`
}

// EmployeePage is what the employee list endpoints return and cache.
type EmployeePage struct {
	Items []EmployeeResponse       `json:"items"`
	Meta  response.PaginationMeta `json:"meta"`
}

type EmployeeWithLeavesPage struct {
	Items []EmployeeWithLeavesResponse `json:"items"`
	Meta  response.PaginationMeta      `json:"meta"`
}
