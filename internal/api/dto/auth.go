package dto

type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

func (r RegisterRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "E-Mail ist erforderlich"
	}
	if r.Password == "" {
		errors["password"] = "Passwort ist erforderlich"
	} else if len(r.Password) < 8 {
		errors["password"] = "Passwort muss mindestens 8 Zeichen haben"
	}
	if r.Name == "" {
		errors["name"] = "Name ist erforderlich"
	}

	return errors
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "E-Mail ist erforderlich"
	}
	if r.Password == "" {
		errors["password"] = "Passwort ist erforderlich"
	}

	return errors
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserDTO struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	Department     string `json:"department,omitempty"`
	OrganizationID string `json:"organization_id"`
	OrgName        string `json:"org_name,omitempty"`
}
