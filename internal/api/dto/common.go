package dto

// User-facing error vocabulary. All client-visible error strings are
// German; handlers must not leak internal error detail.
const (
	MsgInvalidBody     = "Ungültige Eingabe"
	MsgInvalidID       = "Ungültige ID"
	MsgUnauthenticated = "Nicht authentifiziert"
	MsgForbidden       = "Keine Berechtigung"
	MsgNotFound        = "Nicht gefunden"
	MsgProfileNotFound = "Profil nicht gefunden"
	MsgInternalError   = "Interner Serverfehler"

	MsgAlreadyEnrolled   = "Bereits in diesem Kurs eingeschrieben"
	MsgAccountSuspended  = "Konto gesperrt"
	MsgOwnRoleChange     = "Eigene Rolle kann nicht geändert werden"
	MsgSuperAdminLocked  = "Super-Admin-Konten können nicht geändert werden"
	MsgQuarterLimit      = "Maximale Anzahl aktiver OKRs für dieses Quartal erreicht"
	MsgFocusLimit        = "Maximale Anzahl an Fokus-OKRs erreicht"
	MsgFileTooLarge      = "Datei ist zu groß (max. 10 MB)"
	MsgUnsupportedFile   = "Dateityp wird nicht unterstützt"
	MsgSuggestionFailure = "Vorschläge konnten nicht geladen werden"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

type PaginationParams struct {
	Page    int
	PerPage int
}

func (p *PaginationParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 20
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
}

func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}
