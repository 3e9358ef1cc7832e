package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type pageDescriptor struct {
	Page   string
	Title  string
	Action string
	Fields []string
}

var authPages = map[string]pageDescriptor{
	"/login": {
		Page: "login", Title: "Sign in", Action: "/auth/sign-in",
		Fields: []string{"email", "password"},
	},
	"/signup": {
		Page: "signup", Title: "Create an account", Action: "/auth/sign-up",
		Fields: []string{"name", "email", "password", "confirm_password", "privacy", "phone", "store_name", "address", "ein"},
	},
	"/forgot-password": {
		Page: "forgot-password", Title: "Forgot password", Action: "/auth/forgot-password",
		Fields: []string{"email"},
	},
	"/update-password": {
		Page: "update-password", Title: "Choose a new password", Action: "/auth/update-password",
		Fields: []string{"token", "password"},
	},
}

// AuthPage describes the sign-in and account recovery forms. Signed-in
// users never reach these, the route gate sends them home.
// GET /login, /signup, /forgot-password, /update-password
func AuthPage(c *gin.Context) {
	page, ok := authPages[c.FullPath()]
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	body := gin.H{
		"page":   page.Page,
		"title":  page.Title,
		"action": page.Action,
		"fields": page.Fields,
	}
	if redirectTo := c.Query("redirect_to"); redirectTo != "" {
		body["redirect_to"] = redirectTo
	}
	if token := c.Query("token"); token != "" && page.Page == "update-password" {
		body["token"] = token
	}
	c.JSON(http.StatusOK, body)
}
