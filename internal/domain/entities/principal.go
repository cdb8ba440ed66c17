package entities

// UnknownEmail is stamped on authored records when the identity carries no email.
const UnknownEmail = "unknown email"

// Principal is the authenticated identity performing an operation.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func authorOf(p *Principal) (string, string) {
	if p == nil {
		return "", UnknownEmail
	}
	email := p.Email
	if email == "" {
		email = UnknownEmail
	}
	return p.UserID, email
}
