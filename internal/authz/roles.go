package authz

// Роли пользователя; хранятся в users.role и попадают в JWT.
const (
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)
