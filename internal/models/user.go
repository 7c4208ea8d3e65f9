package models

// User represents a registered customer account.
type User struct {
	Model
	Email        string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	PasswordHash string `json:"-" gorm:"type:varchar(255)"` // never bound from request bodies
	FirstName    string `json:"first_name" gorm:"type:varchar(100)" validate:"required,max=100"`
	LastName     string `json:"last_name" gorm:"type:varchar(100)" validate:"required,max=100"`
	PhoneNumber  string `json:"phone_number,omitempty" gorm:"type:varchar(30)" validate:"omitempty,max=30"`
}

// FullName is derived on read and never stored.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
