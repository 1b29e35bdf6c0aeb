// Package models defines the core data structures used throughout the application.
package models

import (
	"fmt"
	"time"
)

// DateLayout is how commit dates are rendered.
const DateLayout = "2006-01-02 15:04:05"

// Commit summarizes one commit as seen by its committer.
type Commit struct {
	SHA       string    `json:"sha"`
	Committer string    `json:"committer"`
	Date      time.Time `json:"date"`
	Message   string    `json:"message"`
}

// FormattedDate returns the committer date in UTC.
func (c Commit) FormattedDate() string {
	return c.Date.UTC().Format(DateLayout)
}

func (c Commit) String() string {
	return fmt.Sprintf("%s - %s - %s", c.FormattedDate(), c.Committer, c.Message)
}

// Subject identifies one command run: the subcommand and its target, e.g.
// "lastrepocommits octocat/Hello-World". It keys the last-run record and
// labels mailed results.
type Subject struct {
	Command string
	Target  string
}

func (s Subject) String() string {
	return s.Command + " " + s.Target
}
