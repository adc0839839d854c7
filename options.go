package efidecompress

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

// Variant selects the Position-Set count width of the stream.
type Variant int

// Variant constants.
const (
	VariantEFI   Variant = iota // 4-bit position count, 8 KiB window (UEFI "EFI 1.1" algorithm, default).
	VariantTiano                // 5-bit position count, 512 KiB window (Tiano/EDK2 algorithm).
)

// PBit returns the Position-Set count width for v.
func (v Variant) PBit() int {
	if v == VariantTiano {
		return 5
	}

	return 4
}

// String returns the lower-case variant name.
func (v Variant) String() string {
	switch v {
	case VariantEFI:
		return "efi"
	case VariantTiano:
		return "tiano"
	default:
		return "unknown"
	}
}

// ParseVariant converts "efi" or "tiano" into a Variant.
func ParseVariant(s string) (Variant, bool) {
	switch s {
	case "efi", "EFI", "":
		return VariantEFI, true
	case "tiano", "Tiano", "TIANO":
		return VariantTiano, true
	default:
		return VariantEFI, false
	}
}

// Options configures decompression.
type Options struct {
	// Variant selects EFI (default) or Tiano stream layout.
	Variant Variant
	// Logger receives debug events per block and on table failures. Nil disables logging.
	Logger logrus.FieldLogger
	// Concurrency bounds DecompressAll workers. Zero means runtime.GOMAXPROCS(0).
	Concurrency int
	// MaxOriginalSize caps the output a header may declare before an allocating
	// entry point sizes its buffer. Zero means unlimited.
	MaxOriginalSize uint32
}

// DefaultOptions returns options for the EFI variant without logging.
func DefaultOptions() *Options {
	return &Options{
		Variant: VariantEFI,
	}
}

// TianoOptions returns options for the Tiano variant without logging.
func TianoOptions() *Options {
	return &Options{
		Variant: VariantTiano,
	}
}

// checkSize rejects headers declaring more output than MaxOriginalSize.
func (o *Options) checkSize(info Info) error {
	if o == nil || o.MaxOriginalSize == 0 || info.OriginalSize <= o.MaxOriginalSize {
		return nil
	}

	return fmt.Errorf("%w: %d > %d", ErrOutputTooLarge, info.OriginalSize, o.MaxOriginalSize)
}

func (o *Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}

	return runtime.GOMAXPROCS(0)
}
