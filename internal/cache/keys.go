package cache

import "fmt"

const (
	EmployeesAllKey   = "employees:all"
	DepartmentsAllKey = "departments:all"
)

func DepartmentEmployeesKey(departmentID string, page, limit int) string {
	return fmt.Sprintf("departments:%s:employees:page=%d&limit=%d", departmentID, page, limit)
}

func DepartmentEmployeesWithLeavesKey(departmentID string, page, limit int) string {
	return fmt.Sprintf("departments:%s:employeesWithLeaves:page=%d&limit=%d", departmentID, page, limit)
}

// DepartmentEmployeesPattern matches both employee list variants of a
// department across all pages.
func DepartmentEmployeesPattern(departmentID string) string {
	return fmt.Sprintf("departments:%s:employees*", departmentID)
}
