package urlbody

import (
	"net/url"

	"github.com/brizzai/reqbuilder/requester"
)

type CreateHook struct {
	_ struct{} `request:"method=POST,path=/repos/{repo}/hooks"`

	Repo       string                `req:"path,name=repo"`
	Callback   *url.URL              `json:"callback"`
	Attachment *requester.FileUpload `json:"attachment,omitempty"`
}
