package models

// AuthCredentials only satisfy the local gate. They are never sent anywhere.
type AuthCredentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}
