package catalog

import (
	"sort"
	"strings"
	"unicode/utf8"

	"morphcore/pkg/domain"
)

// MatchKind ranks how a query matched a token. Higher is better.
type MatchKind int

// Match kinds in ascending strength.
const (
	MatchNone MatchKind = iota
	MatchSubstring
	MatchPrefix
	MatchExact
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchSubstring:
		return "substring"
	default:
		return "none"
	}
}

// Prefixes are the words combined with gene names to form compound tokens
// such as "het albino" or "super pastel".
type Prefixes struct {
	// Carrier applies to the heterozygous state of recessive genes.
	Carrier []string
	// Visual applies to the first visible state of every mode.
	Visual []string
	// Single applies to the heterozygous state of every mode.
	Single []string
	// Double applies to the homozygous state of every mode.
	Double []string
	// Super applies to the homozygous state of dominant and incomplete-dominant genes.
	Super []string
	// Normal applies to the normal state.
	Normal []string
}

// DefaultPrefixes returns the built-in English prefixes plus the localized
// carrier and visual forms keepers commonly type.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		Carrier: []string{"het", "carrier", "portador", "träger", "traeger", "drager"},
		Visual:  []string{"visual", "vis", "sichtbar"},
		Single:  []string{"heterozygous"},
		Double:  []string{"homozygous", "homo"},
		Super:   []string{"super"},
		Normal:  []string{"normal", "non", "no"},
	}
}

// Candidate is one (gene, state) reading of a free-text query.
type Candidate struct {
	GeneID   string
	GeneName string
	State    domain.GeneState
	Label    string
	Token    string
	Match    MatchKind
}

type entry struct {
	gene   int
	state  domain.GeneState
	tokens []string
}

// Resolver maps free text to (gene, state) candidates using a token index
// built once from a gene arena.
type Resolver struct {
	genes   []domain.Gene
	entries []entry
}

// NewResolver builds a resolver over genes. Labels should already carry their
// defaults (see domain.Gene.WithDefaultLabels).
func NewResolver(genes []domain.Gene, prefixes Prefixes) *Resolver {
	arena := make([]domain.Gene, len(genes))
	copy(arena, genes)
	return newResolver(arena, prefixes)
}

func newResolver(genes []domain.Gene, p Prefixes) *Resolver {
	r := &Resolver{genes: genes, entries: make([]entry, 0, len(genes)*len(domain.GeneStates))}
	for i, g := range genes {
		names := []string{Normalize(g.Name)}
		if sh := Normalize(g.Shorthand); sh != "" && sh != names[0] {
			names = append(names, sh)
		}
		for _, st := range domain.GeneStates {
			toks := newTokenSet()
			toks.add(g.Labels.For(st))
			switch st {
			case domain.StateNormal:
				toks.compounds(p.Normal, names)
			case domain.StateHeterozygous:
				toks.compounds(p.Single, names)
				if g.Mode == domain.ModeRecessive {
					toks.compounds(p.Carrier, names)
				} else {
					toks.add(names...)
					toks.compounds(p.Visual, names)
				}
			case domain.StateHomozygous:
				toks.compounds(p.Double, names)
				if g.Mode == domain.ModeRecessive {
					toks.add(names...)
					toks.compounds(p.Visual, names)
				} else {
					toks.compounds(p.Super, names)
				}
			}
			r.entries = append(r.entries, entry{gene: i, state: st, tokens: toks.list})
		}
	}
	return r
}

// Resolve returns ranked candidates for text: exact token matches first, then
// prefix, then substring; ties go to the shorter gene name, then catalog
// order. No match yields an empty slice.
func (r *Resolver) Resolve(text string) []Candidate {
	q := Normalize(text)
	if q == "" {
		return []Candidate{}
	}
	type hit struct {
		entry int
		kind  MatchKind
		token string
	}
	var hits []hit
	for i, e := range r.entries {
		best := hit{entry: i}
		for _, tok := range e.tokens {
			kind := matchToken(tok, q)
			if kind > best.kind {
				best.kind, best.token = kind, tok
			}
		}
		if best.kind != MatchNone {
			hits = append(hits, best)
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		ha, hb := hits[a], hits[b]
		if ha.kind != hb.kind {
			return ha.kind > hb.kind
		}
		ea, eb := r.entries[ha.entry], r.entries[hb.entry]
		la := utf8.RuneCountInString(r.genes[ea.gene].Name)
		lb := utf8.RuneCountInString(r.genes[eb.gene].Name)
		if la != lb {
			return la < lb
		}
		if ea.gene != eb.gene {
			return ea.gene < eb.gene
		}
		return ea.state.Copies() < eb.state.Copies()
	})
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		e := r.entries[h.entry]
		g := r.genes[e.gene]
		out = append(out, Candidate{
			GeneID:   g.ID,
			GeneName: g.Name,
			State:    e.state,
			Label:    g.Labels.For(e.state),
			Token:    h.token,
			Match:    h.kind,
		})
	}
	return out
}

// Tokens returns the index tokens for gene id in state, mainly for diagnostics.
func (r *Resolver) Tokens(geneID string, state domain.GeneState) []string {
	for _, e := range r.entries {
		if r.genes[e.gene].ID == geneID && e.state == state {
			return append([]string(nil), e.tokens...)
		}
	}
	return nil
}

func matchToken(token, q string) MatchKind {
	switch {
	case token == q:
		return MatchExact
	case strings.HasPrefix(token, q):
		return MatchPrefix
	case strings.Contains(token, q):
		return MatchSubstring
	default:
		return MatchNone
	}
}

type tokenSet struct {
	seen map[string]struct{}
	list []string
}

func newTokenSet() *tokenSet { return &tokenSet{seen: make(map[string]struct{})} }

func (t *tokenSet) add(raw ...string) {
	for _, s := range raw {
		n := Normalize(s)
		if n == "" {
			continue
		}
		if _, ok := t.seen[n]; ok {
			continue
		}
		t.seen[n] = struct{}{}
		t.list = append(t.list, n)
	}
}

func (t *tokenSet) compounds(prefixes, names []string) {
	for _, p := range prefixes {
		for _, n := range names {
			t.add(p + " " + n)
		}
	}
}
