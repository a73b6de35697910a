package idempotency

import "time"

type EmployeeCreated struct {
	EmployeeID string    `json:"employeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type DepartmentCreated struct {
	DepartmentID string    `json:"departmentId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type LeaveRequestCreated struct {
	LeaveRequestID string    `json:"leaveRequestId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type LeaveRequestUpdated struct {
	LeaveRequestID string    `json:"leaveRequestId"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Status         string    `json:"status"`
}

type LeaveRequestDeleted struct {
	LeaveRequestID string    `json:"leaveRequestId"`
	DeletedAt      time.Time `json:"deletedAt"`
}
