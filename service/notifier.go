package service

// Notifier delivers the outbound emails the auth flows trigger. Each send
// is fallible independently of the state change that caused it; the
// service logs failures and never rolls the state change back.
type Notifier interface {
	SendVerificationCode(email, code string) error
	SendResetLoginAttemptsLink(email, name, link string) error
	SendResetVerificationAttemptsLink(email, name, link string) error
}
