package models

// PushEvent models the fields of a GitHub push hook that drive payouts.
type PushEvent struct {
	Ref        string         `json:"ref"`
	Repository PushRepository `json:"repository"`
	Commits    []Commit       `json:"commits"`
}

// PushRepository is the repository block of a push hook.
type PushRepository struct {
	URL           string `json:"url"`
	Name          string `json:"name"`
	Owner         Author `json:"owner"`
	DefaultBranch string `json:"default_branch"`
	MasterBranch  string `json:"master_branch"`
}

// Commit is one commit from a push hook. Message is nil when the hook
// carries a JSON null.
type Commit struct {
	ID      string  `json:"id"`
	Message *string `json:"message"`
	URL     string  `json:"url"`
	Author  Author  `json:"author"`
}

// Author identifies the commit author. Email is the payment destination.
type Author struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
