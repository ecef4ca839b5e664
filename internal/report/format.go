package report

import (
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders report numbers for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
	digits  int
}

// NewFormatter builds a formatter for a BCP 47 locale such as "en" or "pt-BR".
// An empty locale selects English.
func NewFormatter(locale string) (*Formatter, error) {
	tag := language.English
	if strings.TrimSpace(locale) != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
		tag = parsed
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag), digits: 2}, nil
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() language.Tag { return f.tag }

// Percent renders p (0..1) as a localized percentage with up to two decimals.
func (f *Formatter) Percent(p float64) string {
	return f.printer.Sprint(number.Percent(p, number.MaxFractionDigits(f.digits)))
}

// Fraction renders p as an exact reduced fraction, e.g. 0.1875 -> "3/16".
func (f *Formatter) Fraction(p float64) string {
	r := new(big.Rat)
	if r.SetFloat64(p) == nil {
		return f.Percent(p)
	}
	if r.IsInt() {
		return r.Num().String()
	}
	return r.String()
}

// Genotype renders a gene's states within a combined row: the bare label when
// certain, otherwise each label with its conditional share.
func (f *Formatter) Genotype(g GeneGenotype) string {
	if g.Certain() {
		return g.Shares[0].Label
	}
	parts := make([]string, 0, len(g.Shares))
	for _, s := range g.Shares {
		parts = append(parts, f.Percent(s.Share)+" "+s.Label)
	}
	return strings.Join(parts, " / ")
}

// FormattedGeneTable is a GeneTable with display strings.
type FormattedGeneTable struct {
	Gene    string
	Cross   string
	Headers []string
	Rows    [][]string
}

// FormattedCombined is the combined table with display strings.
type FormattedCombined struct {
	Headers []string
	Rows    [][]string
}

// GeneTables renders every per-gene breakdown.
func (f *Formatter) GeneTables(r Report) []FormattedGeneTable {
	out := make([]FormattedGeneTable, 0, len(r.Genes))
	for _, g := range r.Genes {
		ft := FormattedGeneTable{
			Gene:    fmt.Sprintf("%s (%s)", g.Gene, g.Mode),
			Cross:   g.Parent1 + " x " + g.Parent2,
			Headers: []string{"State", "Probability", "Fraction", "Visual", "Carrier"},
		}
		for _, row := range g.Rows {
			ft.Rows = append(ft.Rows, []string{
				row.StateLabel,
				f.Percent(row.Probability),
				f.Fraction(row.Probability),
				yesNo(row.Visual),
				yesNo(row.Carrier),
			})
		}
		out = append(out, ft)
	}
	return out
}

// Combined renders the combined table; genotype columns follow gene order.
func (f *Formatter) Combined(r Report) FormattedCombined {
	fc := FormattedCombined{Headers: []string{"Probability", "Phenotype", "Morph"}}
	for _, g := range r.Genes {
		fc.Headers = append(fc.Headers, g.Gene)
	}
	for _, row := range r.Combined {
		cells := []string{f.Percent(row.Probability), row.Phenotype, strings.Join(row.Aliases, ", ")}
		for _, g := range row.Genotypes {
			cells = append(cells, f.Genotype(g))
		}
		fc.Rows = append(fc.Rows, cells)
	}
	return fc
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
