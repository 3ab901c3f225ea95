package domain

// DefaultBranch is used when an input line names no branch
const DefaultBranch = "main"

// Target is a single project/branch pair to check
type Target struct {
	Path   string `json:"path"`
	Branch string `json:"branch"`
}

// String renders the target in its input form, e.g. "group/project/main"
func (t Target) String() string {
	return t.Path + "/" + t.Branch
}

// Credentials is the cookie string and extra headers attached to every
// request of one batch. It is built once and never mutated afterwards.
type Credentials struct {
	CookieString string
	Headers      map[string]string
}
