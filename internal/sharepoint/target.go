package sharepoint

import "fmt"

// Upload size thresholds. The Graph drive API enforces a hard per-request
// ceiling on direct and single-session PUTs; chunking is mandatory above it.
const (
	// SmallUploadLimit is the size below which a file is PUT directly to
	// the content URL without an upload session.
	SmallUploadLimit = 3 * 1024 * 1024

	// SessionPutLimit is the size below which a session upload is a single
	// PUT covering the full span. At or above it the file is fragmented.
	SessionPutLimit = 249 * 1024 * 1024

	// FragmentAlignment is the boundary every non-final fragment must land
	// on; the service rejects or corrupts commits of unaligned fragments.
	FragmentAlignment = 327_680

	// DefaultChunkSize is 190 alignment units.
	DefaultChunkSize = 62_259_200
)

// Target identifies the destination of one upload: the site drive endpoint,
// the folder path relative to the drive root, the file name, and the total
// byte length. The length must be known before the upload starts.
type Target struct {
	// Endpoint is the Graph URL of the destination site or drive owner,
	// e.g. https://graph.microsoft.com/v1.0/sites/{site-id}.
	Endpoint string
	// Folder is the server-relative folder path under the drive root.
	Folder string
	// FileName is the destination file name.
	FileName string
	// Size is the total byte length of the content.
	Size int64
}

// contentURL is the direct-content URL used for small uploads.
func (t Target) contentURL() string {
	return fmt.Sprintf("%s/drive/root:/%s/%s:/content", t.Endpoint, t.Folder, t.FileName)
}

// sessionURL is the upload-session creation URL used for large uploads.
func (t Target) sessionURL() string {
	return fmt.Sprintf("%s/drive/root:/%s/%s:/createUploadSession", t.Endpoint, t.Folder, t.FileName)
}

// String identifies the target in logs and error messages.
func (t Target) String() string {
	return t.Folder + "/" + t.FileName
}
