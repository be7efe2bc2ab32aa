package sharepoint

// UploadSession is the server-issued resource backing one large upload.
//
// The upload URL is pre-authorized; fragment PUTs against it carry no
// Authorization header. The session expires server-side at
// ExpirationDateTime; expiry is not tracked client-side, so a write failure
// against an expired session surfaces as a transfer failure rather than
// being retried in place.
type UploadSession struct {
	UploadURL          string `json:"uploadUrl"`
	ExpirationDateTime string `json:"expirationDateTime"`
}

// DriveItem is the finished object metadata returned by the final write of
// an upload.
type DriveItem struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Size             int64  `json:"size"`
	WebURL           string `json:"webUrl"`
	CreatedDateTime  string `json:"createdDateTime"`
	ModifiedDateTime string `json:"lastModifiedDateTime"`
}
