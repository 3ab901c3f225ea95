package domain

import "encoding/json"

// CommitRecord is the latest commit of a target as reported by GitLab
type CommitRecord struct {
	ID            string `json:"id,omitempty"`
	ShortID       string `json:"short_id,omitempty"`
	Title         string `json:"title,omitempty"`
	Message       string `json:"message,omitempty"`
	AuthorName    string `json:"author_name,omitempty"`
	AuthorEmail   string `json:"author_email,omitempty"`
	CommittedDate string `json:"committed_date,omitempty"`
	WebURL        string `json:"web_url,omitempty"`
}

// UnmarshalJSON decodes a GitLab commit object. Older GitLab versions omit
// committed_date, in which case created_at is used.
func (c *CommitRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            string `json:"id"`
		ShortID       string `json:"short_id"`
		Title         string `json:"title"`
		Message       string `json:"message"`
		AuthorName    string `json:"author_name"`
		AuthorEmail   string `json:"author_email"`
		CommittedDate string `json:"committed_date"`
		CreatedAt     string `json:"created_at"`
		WebURL        string `json:"web_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = CommitRecord{
		ID:            raw.ID,
		ShortID:       raw.ShortID,
		Title:         raw.Title,
		Message:       raw.Message,
		AuthorName:    raw.AuthorName,
		AuthorEmail:   raw.AuthorEmail,
		CommittedDate: raw.CommittedDate,
		WebURL:        raw.WebURL,
	}
	if c.CommittedDate == "" {
		c.CommittedDate = raw.CreatedAt
	}
	return nil
}
