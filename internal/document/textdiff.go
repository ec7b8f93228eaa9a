package document

// Patch is a single splice against a text: delete DelCount runes at Start,
// then insert Insert there. Saving an edit as a patch instead of a full
// overwrite lets two sessions editing different regions of the same variant
// both keep their changes.
type Patch struct {
	Start    int
	DelCount int
	Insert   string
}

func (p Patch) IsZero() bool {
	return p.DelCount == 0 && p.Insert == ""
}

// MakePatch computes the minimal single splice that turns old into new, by
// trimming the common prefix and suffix.
func MakePatch(old, new string) Patch {
	o, n := []rune(old), []rune(new)

	prefix := 0
	for prefix < len(o) && prefix < len(n) && o[prefix] == n[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(o)-prefix && suffix < len(n)-prefix &&
		o[len(o)-1-suffix] == n[len(n)-1-suffix] {
		suffix++
	}

	return Patch{
		Start:    prefix,
		DelCount: len(o) - prefix - suffix,
		Insert:   string(n[prefix : len(n)-suffix]),
	}
}

// ApplyPatch splices the patch into text. Offsets beyond the current text are
// clamped rather than rejected, so a patch made against a slightly stale copy
// still lands instead of clobbering the whole field.
func ApplyPatch(text string, p Patch) string {
	runes := []rune(text)

	start := p.Start
	if start > len(runes) {
		start = len(runes)
	}
	end := start + p.DelCount
	if end > len(runes) {
		end = len(runes)
	}

	out := make([]rune, 0, len(runes)-(end-start)+len(p.Insert))
	out = append(out, runes[:start]...)
	out = append(out, []rune(p.Insert)...)
	out = append(out, runes[end:]...)
	return string(out)
}
