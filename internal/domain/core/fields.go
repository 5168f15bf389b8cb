package core

import "sitehrm/internal/domain/auth"

// FilterEmployeeFields blanks bank details for roles that do not handle payouts.
func FilterEmployeeFields(emp *Employee, user auth.UserContext) {
	switch user.RoleName {
	case auth.RoleAdmin, auth.RoleHR, auth.RoleAccounts:
		return
	}
	emp.BankAccount = ""
	emp.BankIFSC = ""
}
