// Package sample holds annotated requests and their generated
// implementations for the codegen tests.
package sample

import "time"

type GetPost struct {
	_ struct{} `request:"method=GET,path=/users/{user_id}/posts/{post_id},body=none"`

	UserID          uint64   `req:"path,name=user_id"`
	PostID          uint64   `req:"path,name=post_id"`
	IncludeComments *bool    `req:"query,name=include_comments"`
	Tags            []string `req:"query,name=tag"`
	Token           string   `req:"header,name=Authorization"`
	TraceID         *string  `req:"header,name=X-Trace-Id"`
}

type CreateEvent struct {
	_ struct{} `request:"method=POST,path=/events"`

	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

// notARequest has no container tag and is ignored.
type notARequest struct {
	Name string
}
