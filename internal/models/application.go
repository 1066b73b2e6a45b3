package models

import (
	"encoding/json"
	"strings"
)

// Collection names in the BaaS.
const (
	UsersCollection = "users"
	PostsCollection = "posts"
)

// JobStatus is the stage a job application is in.
type JobStatus int

const (
	StatusApplied JobStatus = iota + 1
	StatusInterview
	StatusSecondInterview
	StatusThirdInterview
	StatusOffer
	StatusRejected
	StatusGhosted
)

// JobStatuses lists every defined status in display order.
var JobStatuses = []JobStatus{
	StatusApplied,
	StatusInterview,
	StatusSecondInterview,
	StatusThirdInterview,
	StatusOffer,
	StatusRejected,
	StatusGhosted,
}

var statusNames = map[JobStatus]string{
	StatusApplied:         "applied",
	StatusInterview:       "interview",
	StatusSecondInterview: "second interview",
	StatusThirdInterview:  "third interview",
	StatusOffer:           "offer",
	StatusRejected:        "rejected",
	StatusGhosted:         "ghosted",
}

// Valid reports whether s is one of the seven defined statuses.
func (s JobStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s JobStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseJobStatus accepts a status name ("second interview", "second_interview") and returns its value.
func ParseJobStatus(name string) (JobStatus, bool) {
	name = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "_", " ")))
	for status, n := range statusNames {
		if n == name {
			return status, true
		}
	}
	return 0, false
}

// JobApplication is a record of the posts collection.
type JobApplication struct {
	ID             string    `json:"id,omitempty"`
	CollectionID   string    `json:"collectionId,omitempty"`
	CollectionName string    `json:"collectionName,omitempty"`
	User           string    `json:"user,omitempty"`
	Company        string    `json:"company"`
	Position       string    `json:"position"`
	Status         JobStatus `json:"status"`
	AppliedAt      string    `json:"applied_at,omitempty"`
	ExpiresAt      string    `json:"expires_at,omitempty"`
	Link           string    `json:"link,omitempty"`
	Created        string    `json:"created,omitempty"`
	Updated        string    `json:"updated,omitempty"`
}

// User is an auth record of the users collection. Passwords are never serialized.
type User struct {
	ID             string `json:"id"`
	CollectionID   string `json:"collectionId,omitempty"`
	CollectionName string `json:"collectionName,omitempty"`
	Email          string `json:"email"`
	Verified       bool   `json:"verified"`
	Created        string `json:"created,omitempty"`
	Updated        string `json:"updated,omitempty"`
}

// AuthData is the payload of a successful password authentication.
// Record is kept raw so the upstream user is relayed verbatim.
type AuthData struct {
	Token  string          `json:"token"`
	Record json.RawMessage `json:"record"`
}
