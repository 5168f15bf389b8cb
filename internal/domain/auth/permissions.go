package auth

const (
	RoleAdmin          = "ADMIN"
	RoleHR             = "HR"
	RoleSiteSupervisor = "SITE_SUPERVISOR"
	RoleAccounts       = "ACCOUNTS"
)

const (
	PermDirectoryRead      = "directory.read"
	PermDirectoryWrite     = "directory.write"
	PermAttendanceRead     = "attendance.read"
	PermAttendanceWrite    = "attendance.write"
	PermAttendanceFinalize = "attendance.finalize"
	PermSalaryRead         = "salary.read"
	PermSalaryWrite        = "salary.write"
	PermPayrollRead        = "payroll.read"
	PermPayrollGenerate    = "payroll.generate"
	PermPayrollPay         = "payroll.pay"
	PermPayrollExport      = "payroll.export"
	PermMetricsRead        = "metrics.read"
	PermAuditRead          = "audit.read"
)

var DefaultPermissions = []string{
	PermDirectoryRead,
	PermDirectoryWrite,
	PermAttendanceRead,
	PermAttendanceWrite,
	PermAttendanceFinalize,
	PermSalaryRead,
	PermSalaryWrite,
	PermPayrollRead,
	PermPayrollGenerate,
	PermPayrollPay,
	PermPayrollExport,
	PermMetricsRead,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleAdmin: DefaultPermissions,
	RoleHR: {
		PermDirectoryRead,
		PermDirectoryWrite,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermAttendanceFinalize,
		PermSalaryRead,
		PermSalaryWrite,
		PermPayrollRead,
		PermPayrollGenerate,
		PermPayrollExport,
		PermAuditRead,
	},
	RoleSiteSupervisor: {
		PermDirectoryRead,
		PermAttendanceRead,
		PermAttendanceWrite,
	},
	RoleAccounts: {
		PermDirectoryRead,
		PermSalaryRead,
		PermPayrollRead,
		PermPayrollPay,
		PermPayrollExport,
	},
}
