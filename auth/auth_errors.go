package auth

import "errors"

var (
	InvalidCredentialsErr = errors.New("Invalid email or password")
	EmailTakenErr         = errors.New("Email already registered. Try logging in.")
	RegistrationFailedErr = errors.New("Registration failed. Please try again.")
)
