package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/participa/models"
	"github.com/use-agent/participa/simhash"
)

// structureThreshold is the Hamming distance above which the table layout is
// reported as changed.
const structureThreshold = 3

// Fingerprint summarizes one extracted table.
type Fingerprint struct {
	// Content is the SimHash of the column-tagged cell values.
	Content uint64

	// Digest is the hex sha256 of the same values. Unlike Content it changes
	// whenever any single cell does.
	Digest string

	// Structure is the SimHash of the table's tag layout.
	Structure uint64
}

// TableFingerprint fingerprints the table matched by sel in rawHTML and the
// cells already read from it.
func TableFingerprint(rawHTML string, sel cascadia.Selector, t *models.Table) Fingerprint {
	tokens := contentTokens(t)
	fp := Fingerprint{Content: simhash.FromTokens(tokens), Digest: contentDigest(tokens)}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return fp
	}
	if outer, err := goquery.OuterHtml(doc.FindMatcher(sel).First()); err == nil {
		fp.Structure = simhash.FingerprintDOM(outer)
	}
	return fp
}

// contentTokens turns every cell into one token prefixed with its column,
// so that moving a value to another column counts as a change.
func contentTokens(t *models.Table) []string {
	if t == nil {
		return nil
	}
	tokens := make([]string, 0, t.Len()*len(models.TableHeaders))
	for _, r := range t.Rows() {
		for col, cell := range [...]string{r.Number, r.Channel, r.Subject, r.Period} {
			tokens = append(tokens, strconv.Itoa(col)+":"+cell)
		}
	}
	return tokens
}

func contentDigest(tokens []string) string {
	h := sha256.New()
	for _, tok := range tokens {
		h.Write([]byte(tok))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Drift compares cur against the fingerprints of the previous run. A nil
// prev yields a baseline report.
func Drift(prev *models.DriftInfo, cur Fingerprint) *models.DriftInfo {
	d := &models.DriftInfo{
		Fingerprint:          simhash.Hex(cur.Content),
		StructureFingerprint: simhash.Hex(cur.Structure),
		ContentDigest:        cur.Digest,
	}

	if prev == nil || prev.Fingerprint == "" {
		d.Baseline = true
		return d
	}
	prevContent, errC := simhash.ParseHex(prev.Fingerprint)
	prevStructure, errS := simhash.ParseHex(prev.StructureFingerprint)
	if errC != nil || errS != nil {
		d.Baseline = true
		return d
	}

	d.ContentDistance = simhash.Distance(prevContent, cur.Content)
	d.StructureDistance = simhash.Distance(prevStructure, cur.Structure)
	if prev.ContentDigest != "" && cur.Digest != "" {
		d.Changed = prev.ContentDigest != cur.Digest
	} else {
		d.Changed = prevContent != cur.Content
	}
	d.StructureChanged = !simhash.Similar(prevStructure, cur.Structure, structureThreshold)
	return d
}
