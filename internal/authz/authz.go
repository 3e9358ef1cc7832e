// Package authz holds the back-office permission table.
package authz

type Feature string

type Action string

const (
	Orders     Feature = "orders"
	Categories Feature = "categories"
	Coupons    Feature = "coupons"
	Customers  Feature = "customers"
	Products   Feature = "products"
	Staff      Feature = "staff"
)

const (
	ChangeStatus    Action = "change_status"
	Print           Action = "print"
	Create          Action = "create"
	Delete          Action = "delete"
	Edit            Action = "edit"
	TogglePublished Action = "toggle_published"
)

const RoleAdmin = "admin"

var permissions = map[Feature]map[Action][]string{
	Orders: {
		ChangeStatus: {RoleAdmin},
		Print:        {RoleAdmin},
	},
	Categories: {
		Create:          {RoleAdmin},
		Delete:          {RoleAdmin},
		Edit:            {RoleAdmin},
		TogglePublished: {RoleAdmin},
	},
	Coupons: {
		Create:          {RoleAdmin},
		Delete:          {RoleAdmin},
		Edit:            {RoleAdmin},
		TogglePublished: {RoleAdmin},
	},
	Customers: {
		Delete: {RoleAdmin},
		Edit:   {RoleAdmin},
	},
	Products: {
		Create:          {RoleAdmin},
		Delete:          {RoleAdmin},
		Edit:            {RoleAdmin},
		TogglePublished: {RoleAdmin},
	},
	Staff: {
		Delete:          {RoleAdmin},
		Edit:            {RoleAdmin},
		TogglePublished: {RoleAdmin},
	},
}

// HasPermission reports whether role may perform action on feature.
// Unknown features or actions and an empty role are denied.
func HasPermission(role string, feature Feature, action Action) bool {
	if role == "" {
		return false
	}
	for _, allowed := range permissions[feature][action] {
		if allowed == role {
			return true
		}
	}
	return false
}

// IsSelf reports whether staffID is the acting user.
func IsSelf(userID, staffID uint) bool {
	return userID != 0 && userID == staffID
}
