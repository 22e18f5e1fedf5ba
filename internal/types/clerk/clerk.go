package clerk

import "encoding/json"

// Webhook payloads delivered by Clerk (svix envelope).

type WebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verification struct {
		Status string `json:"status"`
	} `json:"verification"`
}

type UserData struct {
	ID                    string         `json:"id"`
	Username              string         `json:"username"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	ImageURL              string         `json:"image_url"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	Deleted               bool           `json:"deleted"`
}

// PrimaryEmail resolves the primary address, falling back to the first.
func (u *UserData) PrimaryEmail() (email string, verified bool) {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress, e.Verification.Status == "verified"
		}
	}
	if len(u.EmailAddresses) > 0 {
		e := u.EmailAddresses[0]
		return e.EmailAddress, e.Verification.Status == "verified"
	}
	return "", false
}
