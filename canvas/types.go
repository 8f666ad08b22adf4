package canvas

// User is a Canvas user account.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SISUserID string `json:"sis_user_id"`
	LoginID   string `json:"login_id"`
}

// File is an entry in a user's personal files area. DisplayName is the name
// shown in the Canvas UI and the one search_term matches against.
type File struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename"`
	ContentType string `json:"content-type"`
	Size        int64  `json:"size"`
}
