package export

import (
	"fmt"
	"io"
	"os"

	"github.com/andybalholm/brotli"
)

// CompressFile writes a brotli-compressed copy of src to dst. Used for the
// archived copy of the consolidated artifact before delivery.
func CompressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("export: open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", dst, err)
	}

	bw := brotli.NewWriter(out)
	if _, err := io.Copy(bw, in); err != nil {
		out.Close()
		return fmt.Errorf("export: compress %s: %w", src, err)
	}
	if err := bw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("export: flush %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", dst, err)
	}
	return nil
}
