// Package catalog compiles a species record into an immutable, indexed
// snapshot that the cross engine and the state resolver read from.
package catalog

import (
	"sort"
	"strings"

	"morphcore/pkg/domain"
)

// Catalog is an immutable per-species view of genes and aliases. Genes live in
// an ordered arena and are addressed by index; every lookup table is built once
// at compile time.
type Catalog struct {
	slug     string
	name     string
	revision int64
	genes    []domain.Gene
	byID     map[string]int
	aliases  []domain.CombinationAlias
	aliasIdx map[string]int
	resolver *Resolver
}

// Option customises catalog compilation.
type Option func(*options)

type options struct {
	prefixes Prefixes
}

// WithPrefixes replaces the compound prefixes used to build resolver tokens.
func WithPrefixes(p Prefixes) Option {
	return func(o *options) { o.prefixes = p }
}

// Compile validates the species and builds its lookup tables. Catalog defects
// are returned as *domain.ConfigurationError.
func Compile(species domain.Species, opts ...Option) (*Catalog, error) {
	o := options{prefixes: DefaultPrefixes()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := species.Validate(); err != nil {
		return nil, err
	}

	c := &Catalog{
		slug:     species.Slug,
		name:     species.Name,
		revision: species.Revision,
		genes:    make([]domain.Gene, len(species.Genes)),
		byID:     make(map[string]int, len(species.Genes)),
		aliases:  make([]domain.CombinationAlias, len(species.Aliases)),
		aliasIdx: make(map[string]int),
	}
	for i, g := range species.Genes {
		c.genes[i] = g.WithDefaultLabels()
		c.byID[g.ID] = i
	}
	for i, a := range species.Aliases {
		c.aliases[i] = cloneAlias(a)
		// first declaration wins on token collisions
		for _, tok := range aliasTokens(a) {
			if _, taken := c.aliasIdx[tok]; !taken {
				c.aliasIdx[tok] = i
			}
		}
	}
	c.resolver = newResolver(c.genes, o.prefixes)
	return c, nil
}

// Slug returns the species identifier.
func (c *Catalog) Slug() string { return c.slug }

// Name returns the species display name.
func (c *Catalog) Name() string { return c.name }

// Revision returns the species revision the catalog was compiled from.
func (c *Catalog) Revision() int64 { return c.revision }

// Len returns the number of genes.
func (c *Catalog) Len() int { return len(c.genes) }

// Genes returns a copy of the ordered gene arena.
func (c *Catalog) Genes() []domain.Gene {
	out := make([]domain.Gene, len(c.genes))
	copy(out, c.genes)
	return out
}

// GeneAt returns the gene stored at arena index i.
func (c *Catalog) GeneAt(i int) domain.Gene { return c.genes[i] }

// Gene looks up a gene by id.
func (c *Catalog) Gene(id string) (domain.Gene, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Gene{}, false
	}
	return c.genes[i], true
}

// Index returns the arena index of gene id.
func (c *Catalog) Index(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// Aliases returns the alias catalog in declaration order.
func (c *Catalog) Aliases() []domain.CombinationAlias {
	out := make([]domain.CombinationAlias, len(c.aliases))
	for i, a := range c.aliases {
		out[i] = cloneAlias(a)
	}
	return out
}

// Resolver returns the token index built for this catalog.
func (c *Catalog) Resolver() *Resolver { return c.resolver }

// Resolve is shorthand for c.Resolver().Resolve(text).
func (c *Catalog) Resolve(text string) []Candidate { return c.resolver.Resolve(text) }

// ResolveAlias matches text against alias keys, labels and synonyms.
func (c *Catalog) ResolveAlias(text string) (domain.CombinationAlias, bool) {
	i, ok := c.aliasIdx[Normalize(text)]
	if !ok {
		return domain.CombinationAlias{}, false
	}
	return cloneAlias(c.aliases[i]), true
}

// Selected returns the arena indexes of every gene named by either parent, in
// catalog order. Unknown gene ids yield a *domain.InputError.
func (c *Catalog) Selected(parents ...domain.ParentSelection) ([]int, error) {
	mark := make([]bool, len(c.genes))
	var unknown []string
	for _, p := range parents {
		for id := range p {
			i, ok := c.byID[id]
			if !ok {
				unknown = append(unknown, id)
				continue
			}
			mark[i] = true
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &domain.InputError{Reason: "selection names genes absent from the " + c.slug + " catalog", Genes: unknown}
	}
	out := make([]int, 0, len(c.genes))
	for i, m := range mark {
		if m {
			out = append(out, i)
		}
	}
	return out, nil
}

func aliasTokens(a domain.CombinationAlias) []string {
	toks := []string{Normalize(a.Key), Normalize(a.Label)}
	for _, s := range a.Synonyms {
		toks = append(toks, Normalize(s))
	}
	out := toks[:0]
	for _, t := range toks {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func cloneAlias(a domain.CombinationAlias) domain.CombinationAlias {
	a.Synonyms = append([]string(nil), a.Synonyms...)
	a.Components = append([]domain.AliasComponent(nil), a.Components...)
	return a
}

// Normalize is the matching form of gene names and alias text. It lowercases,
// treats '-' and '_' as whitespace before collapsing runs of it.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
