package element

import "strings"

// FallbackResidueColor is used in amino-acid colour mode for residues that
// are not one of the twenty standard amino acids.
const FallbackResidueColor uint32 = 0xCCCCCC

// AminoAcidProvider looks residue colours up by three-letter code.
type AminoAcidProvider interface {
	Lookup(residue string) (uint32, bool)
}

// AminoAcidTable is the built-in residue colour table.
type AminoAcidTable struct {
	colors map[string]uint32
}

// NewAminoAcidTable returns the standard residue colours.
func NewAminoAcidTable() *AminoAcidTable {
	return &AminoAcidTable{colors: map[string]uint32{
		"ALA": 0x9d9d9d,
		"ARG": 0x0f46c8,
		"ASN": 0x00adad,
		"ASP": 0xb40707,
		"CYS": 0xb4b400,
		"GLN": 0x00adad,
		"GLU": 0xb40707,
		"GLY": 0xb8b8b8,
		"HIS": 0x6666a5,
		"ILE": 0x0b660b,
		"LEU": 0x0b660b,
		"LYS": 0x0f46c8,
		"MET": 0xb4b400,
		"PHE": 0x272785,
		"PRO": 0xad7666,
		"SER": 0xc47600,
		"THR": 0xc47600,
		"TRP": 0x8d468d,
		"TYR": 0x272785,
		"VAL": 0x0b660b,
	}}
}

// Lookup implements AminoAcidProvider. Residue names are matched exactly
// after trimming, as they appear in columns 18-20 of ATOM records.
func (t *AminoAcidTable) Lookup(residue string) (uint32, bool) {
	c, ok := t.colors[strings.TrimSpace(residue)]
	return c, ok
}

//Personal.AI order the ending
