package leave

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate  time.Time `gorm:"type:date;not null"`
	EndDate    time.Time `gorm:"type:date;not null"`
	Status     string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (LeaveRequest) TableName() string { return "leave_requests" }

// Employee is the slice of an employee row needed to scope cache
// invalidation to a department.
type Employee struct {
	ID           uuid.UUID
	DepartmentID uuid.UUID
}

func (Employee) TableName() string { return "employees" }
