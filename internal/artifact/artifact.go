package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Summary describes a merged image on disk.
type Summary struct {
	Path   string
	Size   int64
	SHA256 string
}

// Summarize hashes the file at path. When progress is non-nil a progress
// bar is drawn to it while the file is read.
func Summarize(path string, progress io.Writer) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open merged image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	var dst io.Writer = h
	if progress != nil {
		bar := progressbar.NewOptions64(info.Size(),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("Checksum"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		dst = io.MultiWriter(h, bar)
	}

	if _, err := io.Copy(dst, f); err != nil {
		return nil, fmt.Errorf("failed to read merged image: %w", err)
	}

	return &Summary{
		Path:   path,
		Size:   info.Size(),
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Print writes the summary in the tool's usual output format.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Merged:  %s (%d bytes)\n", s.Path, s.Size)
	fmt.Fprintf(w, "SHA-256: %s\n", s.SHA256)
}
