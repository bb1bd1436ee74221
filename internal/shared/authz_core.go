package shared

// Core platform permissions.
const (
	PermUsersView = "view_users"
	PermUsersEdit = "edit_users"

	PermRolesView = "view_roles"
	PermRolesEdit = "edit_roles"

	PermProductsView = "view_products"
	PermProductsEdit = "edit_products"

	PermOrdersView = "view_orders"
	PermOrdersEdit = "edit_orders"
)

// System roles created by the seeder.
const (
	RoleAdmin  = "Admin"
	RoleEditor = "Editor"
	RoleViewer = "Viewer"
)

// CoreScopes lists every permission the seeder provisions, in display order.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermProductsView,
		PermProductsEdit,
		PermOrdersView,
		PermOrdersEdit,
	}
}
