package docfill

import (
	"strings"

	"github.com/fumiama/go-docx"

	"report-workers/internal/report/record"
)

const tokenOpen = "{{"

// Substitute replaces every catalog token in body and table paragraphs and returns the number of
// paragraphs it changed. Tokens that are not in reps are left as written.
func Substitute(doc *Document, reps []record.Replacement) int {
	if len(reps) == 0 {
		return 0
	}
	strip := make([]string, 0, 2*len(reps))
	for _, r := range reps {
		strip = append(strip, r.Token, "")
	}
	stripper := strings.NewReplacer(strip...)

	pairs := make([]string, 0, 2*len(reps))
	for _, r := range reps {
		pairs = append(pairs, r.Token, scrub(r.Value, stripper))
	}
	replacer := strings.NewReplacer(pairs...)

	changed := 0
	for _, p := range doc.Paragraphs() {
		if substituteParagraph(p, replacer) {
			changed++
		}
	}
	return changed
}

// scrub removes catalog tokens from a value so that filled text never contains a token a later
// pass would expand. Removal can join fragments into a new token, so it repeats until stable.
func scrub(v string, stripper *strings.Replacer) string {
	if !strings.Contains(v, tokenOpen) {
		return v
	}
	for {
		next := stripper.Replace(v)
		if next == v {
			return v
		}
		v = next
	}
}

// textRun is a run together with the text nodes it holds.
type textRun struct {
	run   *docx.Run
	texts []*docx.Text
}

func substituteParagraph(p *docx.Paragraph, replacer *strings.Replacer) bool {
	runs := paragraphRuns(p)

	var joined strings.Builder
	var nodes []*docx.Text
	for _, tr := range runs {
		for _, t := range tr.texts {
			joined.WriteString(t.Text)
			nodes = append(nodes, t)
		}
	}
	original := joined.String()
	if len(nodes) == 0 || !strings.Contains(original, tokenOpen) {
		return false
	}

	want := replacer.Replace(original)
	if want == original {
		return false
	}

	// Replace inside each node first so every run keeps its own formatting.
	perNode := make([]string, len(nodes))
	var got strings.Builder
	for i, t := range nodes {
		perNode[i] = replacer.Replace(t.Text)
		got.WriteString(perNode[i])
	}

	if got.String() == want {
		for i, t := range nodes {
			setText(t, perNode[i])
		}
	} else {
		// A token spans several runs: the whole text moves into the first node.
		setText(nodes[0], want)
		for _, t := range nodes[1:] {
			setText(t, "")
		}
	}

	for _, tr := range runs {
		tr.run.Children = expandBreaks(tr.run.Children)
	}
	return true
}

func paragraphRuns(p *docx.Paragraph) []textRun {
	var out []textRun
	add := func(r *docx.Run) {
		tr := textRun{run: r}
		for _, c := range r.Children {
			if t, ok := c.(*docx.Text); ok {
				tr.texts = append(tr.texts, t)
			}
		}
		out = append(out, tr)
	}
	for _, c := range p.Children {
		switch v := c.(type) {
		case *docx.Run:
			add(v)
		case *docx.Hyperlink:
			add(&v.Run)
		}
	}
	return out
}

func setText(t *docx.Text, s string) {
	t.Text = s
	if s != strings.TrimSpace(s) {
		t.XMLSpace = "preserve"
	}
}

// expandBreaks turns newlines and tabs inside text nodes into line breaks and tab elements.
func expandBreaks(children []interface{}) []interface{} {
	needs := false
	for _, c := range children {
		if t, ok := c.(*docx.Text); ok && strings.ContainsAny(t.Text, "\n\t") {
			needs = true
			break
		}
	}
	if !needs {
		return children
	}

	out := make([]interface{}, 0, len(children)+4)
	for _, c := range children {
		t, ok := c.(*docx.Text)
		if !ok || !strings.ContainsAny(t.Text, "\n\t") {
			out = append(out, c)
			continue
		}
		text := strings.ReplaceAll(t.Text, "\r\n", "\n")
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				out = append(out, &docx.BarterRabbet{})
			}
			for j, seg := range strings.Split(line, "\t") {
				if j > 0 {
					out = append(out, &docx.Tab{})
				}
				if seg != "" {
					nt := &docx.Text{}
					setText(nt, seg)
					out = append(out, nt)
				}
			}
		}
	}
	return out
}
