package forms

// Registration covers the sign-up form. Confirm-password must echo the
// password field exactly.
var Registration = Definition{
	"username": {
		{Tag: "required", Message: "Username is required."},
		{Tag: "min=4,max=20", Message: "Username must be between 4 and 20 characters."},
	},
	"email": {
		{Tag: "required", Message: "Email is required."},
		{Tag: "email", Message: "Enter a valid email address."},
	},
	"password": {
		{Tag: "required", Message: "Password is required."},
		{Tag: "min=6", Message: "Password must be at least 6 characters."},
	},
	"confirm_password": {
		{Tag: "required", Message: "Please confirm your password."},
		{EqualTo: "password", Message: "Passwords must match."},
	},
}

// Logout carries no fields; validating it checks only the anti-forgery token.
var Logout = Definition{}

var Login = Definition{
	"username": {
		{Tag: "required", Message: "Username is required."},
	},
	"password": {
		{Tag: "required", Message: "Password is required."},
	},
}

// Contact has two optional fields; phone and website carry no rules.
var Contact = Definition{
	"name": {
		{Tag: "required", Message: "Name is required."},
		{Tag: "max=100", Message: "Name must be at most 100 characters."},
	},
	"email": {
		{Tag: "required", Message: "Email is required."},
		{Tag: "email", Message: "Enter a valid email address."},
	},
	"phone":   nil,
	"website": nil,
	"message": {
		{Tag: "required", Message: "Message is required."},
	},
}
