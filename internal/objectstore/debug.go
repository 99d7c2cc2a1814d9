package objectstore

import (
	"log"
	"os"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

var storageDebugEnabled = strings.EqualFold(os.Getenv("DOCCHAT_STORAGE_DEBUG"), "1")

func debugLog(format string, args ...interface{}) {
	if storageDebugEnabled {
		log.Printf(format, args...)
	}
}

// debugObject logs where a freshly uploaded object can be reached and how
// full the bucket is. Skipped entirely unless DOCCHAT_STORAGE_DEBUG=1.
func (c *Client) debugObject(path string) {
	if !storageDebugEnabled {
		return
	}
	public := c.inner.GetPublicUrl(c.bucket, path)
	debugLog("storage: public url for %s: %s", path, public.SignedURL)
	signed, err := c.inner.CreateSignedUrl(c.bucket, path, 60)
	if err != nil {
		debugLog("storage: create signed url for %s: %v", path, err)
	} else {
		debugLog("storage: signed url for %s: %s", path, signed.SignedURL)
	}
	files, err := c.inner.ListFiles(c.bucket, "", storage_go.FileSearchOptions{})
	if err != nil {
		debugLog("storage: list bucket %s: %v", c.bucket, err)
		return
	}
	debugLog("storage: bucket %s holds %d objects", c.bucket, len(files))
}
