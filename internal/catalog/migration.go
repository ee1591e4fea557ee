package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// IDWidth is the minimum number of digits in a canonical migration ID.
const IDWidth = 3

// Migration is a single migration file discovered on disk.
type Migration struct {
	// Sequence is parsed from the file name's numeric prefix, regardless of
	// how many digits were used on disk.
	Sequence uint64 `json:"sequence"`
	// Slug is the lower-kebab form of the name that follows the prefix.
	Slug string `json:"slug"`
	// ID is the canonical identifier recorded in history.
	ID string `json:"id"`
	// Path is the absolute path of the executable file.
	Path string `json:"path"`
	// FileName is the base name on disk.
	FileName string `json:"file_name"`
	// Stem is FileName without its extension. A directory with this name next
	// to the migration holds its assets.
	Stem string `json:"stem"`
}

// FormatID renders the canonical ID for a sequence and slug.
func FormatID(sequence uint64, slug string) string {
	return fmt.Sprintf("%0*d-%s", IDWidth, sequence, slug)
}

// ParseID extracts the sequence from an ID as it appears in history. The part
// after the prefix is returned as-is.
func ParseID(id string) (uint64, string, error) {
	digits := leadingDigits(id)
	if digits == 0 || digits >= len(id)-1 || id[digits] != '-' {
		return 0, "", fmt.Errorf("invalid migration id %q: expected <digits>-<name>", id)
	}
	if strings.IndexFunc(id, unicode.IsSpace) != -1 {
		return 0, "", fmt.Errorf("invalid migration id %q: contains whitespace", id)
	}
	sequence, err := strconv.ParseUint(id[:digits], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid migration id %q: %w", id, err)
	}
	return sequence, id[digits+1:], nil
}

// Slugify lowercases s and collapses every run of characters other than
// letters and digits into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

var errNotAMigration = errors.New("not a migration file name")

type fileName struct {
	sequence uint64
	slug     string
	stem     string
	ext      string
	hasExt   bool
}

// parseFileName splits a name of the form <digits>-<rest>[.<ext>].
func parseFileName(name string) (fileName, error) {
	if strings.HasPrefix(name, ".") {
		return fileName{}, errNotAMigration
	}
	digits := leadingDigits(name)
	if digits == 0 || digits >= len(name)-1 || name[digits] != '-' {
		return fileName{}, errNotAMigration
	}
	sequence, err := strconv.ParseUint(name[:digits], 10, 64)
	if err != nil {
		return fileName{}, fmt.Errorf("%w: %v", errNotAMigration, err)
	}

	parsed := fileName{
		sequence: sequence,
		stem:     name,
	}
	rest := name[digits+1:]
	if idx := strings.LastIndexByte(rest, '.'); idx != -1 {
		parsed.hasExt = true
		parsed.ext = strings.ToLower(rest[idx+1:])
		parsed.stem = name[:digits+1+idx]
		rest = rest[:idx]
	}
	parsed.slug = Slugify(rest)
	if parsed.slug == "" {
		return fileName{}, errNotAMigration
	}

	return parsed, nil
}

func leadingDigits(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
