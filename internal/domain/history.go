package domain

import "time"

// HistoryTimeLayout is the layout of HistoryRecord.Time
const HistoryTimeLayout = "2006-01-02 15:04:05"

// HistoryRecord is a previously submitted check, kept so it can be re-run
type HistoryRecord struct {
	ID        string    `json:"id"`
	Time      string    `json:"time"`
	GitLabURL string    `json:"gitlabUrl"`
	Projects  []string  `json:"projects"`
	CreatedAt time.Time `json:"-"`
}

// NewHistoryRecord builds a record from a submitted target list
func NewHistoryRecord(id, gitlabURL string, targets []Target, now time.Time) *HistoryRecord {
	projects := make([]string, len(targets))
	for i, t := range targets {
		projects[i] = t.String()
	}
	return &HistoryRecord{
		ID:        id,
		Time:      now.Format(HistoryTimeLayout),
		GitLabURL: gitlabURL,
		Projects:  projects,
		CreatedAt: now,
	}
}
