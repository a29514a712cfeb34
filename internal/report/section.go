package report

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/amirbrooks/tasker-notes/internal/vault"
)

const (
	SectionStart   = vault.ReportStart
	SectionEnd     = vault.ReportEnd
	SectionHeading = "## Tasks report"
)

func wrapMarkedSection(section string) string {
	section = strings.TrimRight(section, "\n")
	return SectionStart + "\n" + SectionHeading + "\n\n" + section + "\n" + SectionEnd
}

func replaceMarkedBlock(content, block string) (string, bool) {
	start := strings.Index(content, SectionStart)
	if start == -1 {
		return content, false
	}
	end := strings.Index(content[start:], SectionEnd)
	if end == -1 {
		return content, false
	}
	end = start + end + len(SectionEnd)
	return content[:start] + block + content[end:], true
}

// UpsertSection places section in content between the report markers. An
// existing marked block is replaced; otherwise an unmarked "## Tasks report"
// section is replaced up to the next heading; otherwise the block is appended.
// Applying the same section twice yields the same content.
func UpsertSection(content, section string) string {
	content = strings.TrimRight(content, "\n")
	block := wrapMarkedSection(section)
	if strings.TrimSpace(content) == "" {
		return block + "\n"
	}
	if updated, ok := replaceMarkedBlock(content, block); ok {
		return strings.TrimRight(updated, "\n") + "\n"
	}

	lines := strings.Split(content, "\n")
	blockLines := strings.Split(block, "\n")
	out := make([]string, 0, len(lines)+len(blockLines)+2)
	inSection := false
	replaced := false
	for _, line := range lines {
		if !replaced && strings.TrimSpace(line) == SectionHeading {
			out = append(out, blockLines...)
			replaced = true
			inSection = true
			continue
		}
		if inSection {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				inSection = false
				out = append(out, line)
			}
			continue
		}
		out = append(out, line)
	}
	if !replaced {
		out = append(out, "")
		out = append(out, blockLines...)
	}
	return strings.Join(out, "\n") + "\n"
}

// WriteSection upserts section into the vault note at rel, creating the note
// when it does not exist yet.
func WriteSection(v *vault.Vault, rel, section string) error {
	if !vault.IsNote(rel) {
		rel += ".md"
	}
	current, err := v.ReadFile(rel)
	if err != nil && !errors.Is(err, vault.ErrNotFound) {
		return err
	}
	updated := UpsertSection(string(current), section)
	if updated == string(current) {
		return nil
	}
	return v.WriteFile(rel, []byte(updated))
}
