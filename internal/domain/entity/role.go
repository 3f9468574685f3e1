package entity

// Agent roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleNDM     = "ndm"
)
